package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"ticketbot/internal/httpx"
)

// CatalogClient fetches the raw service catalog document. Parsing belongs
// to the catalog package, not here.
type CatalogClient struct {
	url   string
	httpc *http.Client
}

func NewCatalogClient(url string) *CatalogClient {
	return &CatalogClient{url: url, httpc: httpx.Client()}
}

func (c *CatalogClient) FetchRaw(ctx context.Context) ([]byte, error) {
	log.Printf("fetch catalog url=%s", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating catalog request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog response: %w", err)
	}

	log.Printf("fetch catalog size=%d", len(body))
	return body, nil
}
