package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fetcher retrieves the current rates for one base currency.
type Fetcher interface {
	Fetch(ctx context.Context, base string) (map[string]float64, error)
}

// APIClient fetches rates from an exchangerate-api compatible endpoint:
// GET {base_url}/{currency} returns {"base": "...", "rates": {"EUR": 0.92}}.
type APIClient struct {
	baseURL string
	httpc   *http.Client
}

// NewAPIClient builds an APIClient for the given endpoint.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch loads the rate table for one base currency.
func (c *APIClient) Fetch(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates for %s: unexpected status %d", base, resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates response for %s is empty", base)
	}
	return payload.Rates, nil
}
