package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reviewlens/types"
)

// SerperClient searches for review pages through the Serper API.
// Endpoint: POST https://google.serper.dev/search
// Request: {"q": "...", "num": N, "gl": "us", "hl": "en"}
// Response: {"organic": [{"link": "...", ...}, ...]}
type SerperClient struct {
	apiKey     string
	baseURL    string
	resultNum  int
	httpClient *http.Client
}

// NewSerperClient builds a Serper discovery client.
func NewSerperClient(apiKey, baseURL string, resultNum int) *SerperClient {
	if baseURL == "" {
		baseURL = "https://google.serper.dev/search"
	}
	if resultNum <= 0 {
		resultNum = 10
	}
	return &SerperClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		resultNum:  resultNum,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *SerperClient) Search(ctx context.Context, productName string) ([]string, error) {
	query := fmt.Sprintf("%s shopping reviews", productName)

	payload := map[string]any{
		"q":   query,
		"num": c.resultNum,
		"gl":  "us",
		"hl":  "en",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "encode serper request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "build serper request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.Wrap(types.KindUpstreamTransient, err, "serper request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusPaymentRequired:
		return nil, types.E(types.KindUpstreamQuota, "serper quota exhausted (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.E(types.KindUpstreamTransient, "serper returned status %d: %s", resp.StatusCode, detail)
	}

	var parsed struct {
		Organic []struct {
			Link string `json:"link"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.Wrap(types.KindUpstreamTransient, err, "decode serper response")
	}

	// The first organic hit is almost always the manufacturer's own page,
	// not a review. Skip it.
	var urls []string
	for i, result := range parsed.Organic {
		if i == 0 {
			continue
		}
		if result.Link != "" {
			urls = append(urls, result.Link)
		}
	}

	urls = dedupe(urls)
	if len(urls) == 0 {
		return nil, types.E(types.KindNoSourcesFound, "no review URLs found for %q", productName)
	}
	return urls, nil
}
