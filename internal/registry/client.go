package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Entry is one registered medicine in the government registry.
type Entry struct {
	LicenseID      string `json:"license_id"`
	Name           string `json:"name"`
	Dosage         string `json:"dosage"`
	Form           string `json:"form"`
	Manufacturer   string `json:"manufacturer"`
	PrescriptionRx bool   `json:"prescription_required"`
}

// Client looks up medicines in the national drug registry.
type Client interface {
	Search(ctx context.Context, name string) ([]Entry, error)
}

type httpRegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) Client {
	return &httpRegistryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type searchResponse struct {
	Results []Entry `json:"results"`
}

func (c *httpRegistryClient) Search(ctx context.Context, name string) ([]Entry, error) {
	endpoint := fmt.Sprintf("%s/api/medicines/search?q=%s", c.baseURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registry API error: %s - %s", resp.Status, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// NoopClient is used when no registry endpoint is configured. Lookups
// return nothing, so analysis results simply carry no registry annotations.
type NoopClient struct{}

func (NoopClient) Search(ctx context.Context, name string) ([]Entry, error) {
	return nil, nil
}
