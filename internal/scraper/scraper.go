package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/that-schedule/internal/activity"
	"github.com/pfrederiksen/that-schedule/internal/logger"
)

const (
	ScheduleURL = "https://that.us/events/wi/2022/schedule/"
	BaseURL     = "https://that.us/"
)

// Scraper handles discovering and fetching THAT activity pages
type Scraper struct {
	fetcher     Fetcher
	scheduleURL string
	baseURL     *url.URL
}

// New creates a new Scraper. Empty URLs fall back to ScheduleURL and BaseURL.
func New(fetcher Fetcher, scheduleURL, baseURL string) (*Scraper, error) {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(Timeout)
	}
	if scheduleURL == "" {
		scheduleURL = ScheduleURL
	}
	if baseURL == "" {
		baseURL = BaseURL
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", baseURL)
	}

	return &Scraper{
		fetcher:     fetcher,
		scheduleURL: scheduleURL,
		baseURL:     base,
	}, nil
}

// FetchActivityLinks fetches the schedule index and returns every activity link on it
func (s *Scraper) FetchActivityLinks(ctx context.Context) (activity.LinkSet, error) {
	logger.Info("Fetching schedule", logger.Fields{"url": s.scheduleURL})

	html, err := s.fetcher.Fetch(ctx, s.scheduleURL)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}

	links, err := parseActivityLinks(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	for _, link := range links.Sorted() {
		logger.Debug("Discovered activity", logger.Fields{"link": link})
	}
	logger.SetGauge("activities.discovered", float64(links.Len()))

	return links, nil
}

// parseActivityLinks extracts the distinct activity links from a schedule page
func parseActivityLinks(r io.Reader) (activity.LinkSet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	links := activity.NewLinkSet()
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if activity.IsActivityLink(href) {
			links.Add(href)
		}
	})

	return links, nil
}

// ActivityURL resolves an activity link against the base URL
func (s *Scraper) ActivityURL(link string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parsing activity link %q: %w", link, err)
	}
	return s.baseURL.ResolveReference(ref).String(), nil
}

// FetchActivityPage fetches the detail page of one activity
func (s *Scraper) FetchActivityPage(ctx context.Context, link string) (string, error) {
	pageURL, err := s.ActivityURL(link)
	if err != nil {
		return "", err
	}

	logger.Info("Fetching activity", logger.Fields{"url": pageURL})

	start := time.Now()
	html, err := s.fetcher.Fetch(ctx, pageURL)
	logger.RecordTiming("fetch.page", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("fetching activity: %w", err)
	}
	logger.IncrCounter("pages.fetched")

	return html, nil
}
