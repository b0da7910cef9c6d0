package scraper

import "fmt"

// FetchError represents a failure to retrieve a page
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// LayoutError reports an activity page whose structure does not match the
// expected title, date block and description layout.
type LayoutError struct {
	Link   string
	Reason string
	// Block is the raw date block text, kept for diagnostics.
	Block string
	Cause error
}

func (e *LayoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unexpected layout for %s: %s: %v", e.Link, e.Reason, e.Cause)
	}
	return fmt.Sprintf("unexpected layout for %s: %s", e.Link, e.Reason)
}

func (e *LayoutError) Unwrap() error {
	return e.Cause
}
