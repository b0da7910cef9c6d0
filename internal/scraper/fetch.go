package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	UserAgent = "that-schedule/1.0 (github.com/pfrederiksen/that-schedule)"
	Timeout   = 30 * time.Second
)

// Fetcher retrieves the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain HTTP GET
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given timeout (Timeout if zero)
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the body of url. Any status other than 200 is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Message: "creating request", Cause: err}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Message: "fetching page", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Message: "reading body", Cause: err}
	}

	return string(body), nil
}
