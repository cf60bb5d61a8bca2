package synthesis

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	coherecore "github.com/cohere-ai/cohere-go/v2/core"

	"reviewlens/types"
)

// CohereClient synthesizes analyses with the Cohere chat API.
// Docs: https://docs.cohere.com/reference/chat
// SDK: github.com/cohere-ai/cohere-go/v2
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

// NewCohereClient builds a synthesis client for the given model.
func NewCohereClient(apiKey, model string) *CohereClient {
	httpClient := &http.Client{Timeout: 180 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereClient{client: client, model: model}
}

func (c *CohereClient) Analyze(ctx context.Context, corpus string) (*types.AnalysisResult, error) {
	text, err := c.chat(ctx, analysisPrompt(corpus))
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// chat sends a single user message and concatenates the text parts of the
// assistant response.
func (c *CohereClient) chat(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.V2.Chat(ctx, &cohere.V2ChatRequest{
		Model: c.model,
		Messages: cohere.ChatMessages{
			{
				Role: "user",
				User: &cohere.UserMessageV2{
					Content: &cohere.UserMessageV2Content{String: prompt},
				},
			},
		},
	})
	if err != nil {
		return "", classifyCohereError(err)
	}
	if resp.Message == nil || len(resp.Message.Content) == 0 {
		return "", types.E(types.KindUpstreamMalformed, "cohere returned an empty response")
	}

	var sb strings.Builder
	for _, item := range resp.Message.Content {
		if item.Text != nil {
			sb.WriteString(item.Text.Text)
		}
	}
	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", types.E(types.KindUpstreamMalformed, "cohere response contained no text content")
	}
	log.Printf("[synthesis] cohere response: %d chars", len(out))
	return out, nil
}

func classifyCohereError(err error) error {
	var apiErr *coherecore.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusPaymentRequired:
			return types.Wrap(types.KindUpstreamQuota, err, "cohere quota exhausted")
		case apiErr.StatusCode >= 500:
			return types.Wrap(types.KindUpstreamTransient, err, "cohere server error")
		}
	}
	return types.Wrap(types.KindUpstreamTransient, err, "cohere chat failed")
}
