package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"reviewlens/types"
)

// GoogleCSEClient discovers review pages through the Google Custom Search
// JSON API. Alternative to Serper, selected with DISCOVERY_PROVIDER=google.
type GoogleCSEClient struct {
	service  *customsearch.Service
	engineID string
}

// NewGoogleCSEClient builds a Custom Search client authenticated by API key.
func NewGoogleCSEClient(ctx context.Context, apiKey, engineID string) (*GoogleCSEClient, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	return &GoogleCSEClient{service: svc, engineID: engineID}, nil
}

func (c *GoogleCSEClient) Search(ctx context.Context, productName string) ([]string, error) {
	query := fmt.Sprintf("%s shopping reviews", productName)

	resp, err := c.service.Cse.List().
		Cx(c.engineID).
		Q(query).
		Num(10).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusForbidden {
				return nil, types.Wrap(types.KindUpstreamQuota, err, "custom search quota exhausted")
			}
		}
		return nil, types.Wrap(types.KindUpstreamTransient, err, "custom search failed")
	}

	var urls []string
	for _, item := range resp.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}

	urls = dedupe(urls)
	if len(urls) == 0 {
		return nil, types.E(types.KindNoSourcesFound, "no review URLs found for %q", productName)
	}
	return urls, nil
}
