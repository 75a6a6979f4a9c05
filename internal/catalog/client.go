package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Catalog retrieval errors. A failed listing aborts the entire run, since
// change selection needs the complete catalog.
var (
	// ErrUnavailable indicates a transport failure or non-success status.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrMalformed indicates the listing payload could not be decoded.
	ErrMalformed = errors.New("catalog malformed")
)

// Client fetches the full dataset listing from the metastore.
type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a catalog client for the given listing URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// Fetch issues one GET for the full listing and decodes it into descriptors.
// There is no pagination and no retry.
func (c *Client) Fetch(ctx context.Context) ([]Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrUnavailable, resp.StatusCode)
	}

	var descriptors []Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return descriptors, nil
}
