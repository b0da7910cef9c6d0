// Package pipeline runs one schedule build: discover activity links, refresh
// the cache, parse every activity and write the schedule outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/that-schedule/internal/activity"
	"github.com/pfrederiksen/that-schedule/internal/calendar"
	"github.com/pfrederiksen/that-schedule/internal/config"
	"github.com/pfrederiksen/that-schedule/internal/logger"
	"github.com/pfrederiksen/that-schedule/internal/render"
	"github.com/pfrederiksen/that-schedule/internal/schedule"
	"github.com/pfrederiksen/that-schedule/internal/scraper"
	"github.com/pfrederiksen/that-schedule/internal/storage"
)

// Options configures a single run
type Options struct {
	ScheduleURL string
	BaseURL     string

	CachePath string
	NoCache   bool
	// Invalidate is config.InvalidateAll or config.InvalidateChanged.
	Invalidate string

	OutputDir    string
	TemplatePath string
	ScheduleFile string
	NoICS        bool
	Sort         schedule.SortOrder

	Selectors scraper.Selectors
	Markdown  bool
	Strict    bool

	// Fetcher defaults to a plain HTTP fetcher.
	Fetcher scraper.Fetcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps a validated configuration onto run options
func OptionsFromConfig(cfg *config.Config, fetcher scraper.Fetcher) Options {
	return Options{
		ScheduleURL:  cfg.ScheduleURL,
		BaseURL:      cfg.BaseURL,
		CachePath:    cfg.CachePath,
		NoCache:      cfg.NoCache,
		Invalidate:   cfg.Invalidate,
		OutputDir:    cfg.OutputDir,
		TemplatePath: cfg.TemplatePath,
		ScheduleFile: cfg.ScheduleFile,
		NoICS:        cfg.NoICS,
		Sort:         schedule.SortOrder(cfg.Sort),
		Selectors: scraper.Selectors{
			Title:       cfg.Selectors.Title,
			DateBlock:   cfg.Selectors.DateBlock,
			Description: cfg.Selectors.Description,
		},
		Markdown: cfg.DescriptionFormat == config.DescriptionMarkdown,
		Strict:   cfg.Strict,
		Fetcher:  fetcher,
	}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Skipped records an activity left out of the schedule
type Skipped struct {
	Link   string `json:"link"`
	Reason string `json:"reason"`
	Block  string `json:"block,omitempty"`
}

// Result summarizes a run
type Result struct {
	Discovered []string `json:"discovered"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	// CacheValid is true when the cached listing matched the discovered links.
	CacheValid bool `json:"cache_valid"`

	Activities []*activity.Activity `json:"activities"`
	Skipped    []Skipped            `json:"skipped"`
	Changes    []*activity.Change   `json:"changes,omitempty"`

	ScheduleFile string    `json:"schedule_file"`
	PagePath     string    `json:"page_path"`
	CalendarPath string    `json:"calendar_path,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Run executes one full build
func Run(ctx context.Context, opts Options) (*Result, error) {
	sc, err := scraper.New(opts.Fetcher, opts.ScheduleURL, opts.BaseURL)
	if err != nil {
		return nil, err
	}

	current, err := sc.FetchActivityLinks(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Discovered: current.Sorted(),
		Skipped:    []Skipped{},
	}

	var store *storage.Storage
	previous := activity.NewLinkSet()
	if !opts.NoCache {
		store, err = storage.New(opts.CachePath)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}

		var exists bool
		previous, exists, err = store.LoadLinks()
		if err != nil {
			return nil, err
		}

		diff := activity.DiffLinks(previous, current)
		result.Added = diff.Added
		result.Removed = diff.Removed
		result.CacheValid = exists && previous.Equal(current)
		logger.Debug("Loaded activity listing", logger.Fields{
			"dir":    store.Dir(),
			"links":  previous.Len(),
			"exists": exists,
		})

		if !result.CacheValid {
			logger.Info("Activity list changed, rewriting listing", logger.Fields{
				"added":   len(diff.Added),
				"removed": len(diff.Removed),
				"policy":  opts.Invalidate,
			})
			if err := store.SaveLinks(current); err != nil {
				return nil, err
			}
		}
	} else {
		result.Added = current.Sorted()
		result.Removed = []string{}
	}

	parser := scraper.NewParser(opts.Selectors, opts.Markdown)
	reuse := reusePolicy(opts, result.CacheValid, previous)

	activities := make([]*activity.Activity, 0, current.Len())
	for _, link := range current.Sorted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, changes, err := buildActivity(ctx, sc, store, parser, link, reuse(link))
		if err != nil {
			var layoutErr *scraper.LayoutError
			if errors.As(err, &layoutErr) && !opts.Strict {
				logger.Warn("Skipping activity", logger.Fields{
					"link":   link,
					"reason": layoutErr.Error(),
				})
				logger.IncrCounter("activities.skipped")
				result.Skipped = append(result.Skipped, Skipped{
					Link:   link,
					Reason: layoutErr.Error(),
					Block:  layoutErr.Block,
				})
				continue
			}
			return nil, err
		}

		logger.Info("Parsed activity", logger.Fields{"title": a.Title})
		logger.IncrCounter("activities.parsed")
		activities = append(activities, a)
		result.Changes = append(result.Changes, changes...)
	}

	result.Activities = schedule.Assemble(activities, opts.Sort)

	data, err := schedule.Write(opts.ScheduleFile, result.Activities)
	if err != nil {
		return nil, err
	}
	result.ScheduleFile = opts.ScheduleFile

	result.LastUpdated = lastUpdated(opts, store)

	result.PagePath, err = render.Page(opts.TemplatePath, opts.OutputDir, data, result.LastUpdated)
	if err != nil {
		return nil, err
	}

	if !opts.NoICS {
		result.CalendarPath, err = calendar.WriteICS(opts.OutputDir, result.Activities, result.LastUpdated)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Schedule written", logger.Fields{
		"activities": len(result.Activities),
		"skipped":    len(result.Skipped),
		"fetched":    logger.Counter("pages.fetched"),
		"cached":     logger.Counter("pages.cached"),
		"page":       result.PagePath,
	})

	return result, nil
}

// reusePolicy reports, per link, whether a cached page may be used
func reusePolicy(opts Options, cacheValid bool, previous activity.LinkSet) func(link string) bool {
	switch {
	case opts.NoCache:
		return func(string) bool { return false }
	case cacheValid:
		return func(string) bool { return true }
	case opts.Invalidate == config.InvalidateChanged:
		return previous.Contains
	default:
		return func(string) bool { return false }
	}
}

// buildActivity loads or fetches one activity page and parses it
func buildActivity(ctx context.Context, sc *scraper.Scraper, store *storage.Storage, parser *scraper.Parser, link string, useCache bool) (*activity.Activity, []*activity.Change, error) {
	id, ok := activity.ExtractID(link)
	if !ok {
		return nil, nil, &scraper.LayoutError{Link: link, Reason: "link has no activity id"}
	}

	pageURL, err := sc.ActivityURL(link)
	if err != nil {
		return nil, nil, err
	}

	var html string
	var cached bool
	if store != nil && useCache {
		html, cached, err = store.ReadPage(id)
		if err != nil {
			return nil, nil, err
		}
	}

	if cached {
		logger.Debug("Using cached page", logger.Fields{"id": id})
		logger.IncrCounter("pages.cached")
	} else {
		html, err = sc.FetchActivityPage(ctx, link)
		if err != nil {
			return nil, nil, err
		}
		if store != nil {
			if err := store.WritePage(id, html); err != nil {
				return nil, nil, err
			}
		}
	}

	a, err := parser.Parse(html, pageURL)
	if err != nil {
		return nil, nil, err
	}

	if store == nil {
		return a, nil, nil
	}

	prev, err := store.ReadActivity(id)
	if err != nil {
		logger.Warn("Ignoring unreadable cached record", logger.Fields{"id": id, "error": err.Error()})
		prev = nil
	}
	changes := activity.DetectChanges(prev, a)
	for _, c := range changes {
		logger.Debug("Activity changed", logger.Fields{
			"link": c.Link,
			"type": c.ChangeType,
			"old":  c.OldValue,
			"new":  c.NewValue,
		})
	}

	if err := store.WriteActivity(id, a); err != nil {
		return nil, nil, err
	}

	return a, changes, nil
}

// lastUpdated is the listing's modification time, or now without a cache
func lastUpdated(opts Options, store *storage.Storage) time.Time {
	if store == nil {
		return opts.now()
	}
	mtime, err := store.ListingModTime()
	if err != nil {
		logger.Warn("Reading listing mtime", logger.Fields{"error": err.Error()})
		return opts.now()
	}
	return mtime
}

// CheckNew returns the discovered links missing from the cached listing.
// It never writes to the cache.
func CheckNew(ctx context.Context, opts Options) ([]string, error) {
	sc, err := scraper.New(opts.Fetcher, opts.ScheduleURL, opts.BaseURL)
	if err != nil {
		return nil, err
	}

	current, err := sc.FetchActivityLinks(ctx)
	if err != nil {
		return nil, err
	}

	previous := activity.NewLinkSet()
	if !opts.NoCache {
		cachePath, err := storage.ExpandPath(opts.CachePath)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(cachePath); err == nil {
			store, err := storage.New(cachePath)
			if err != nil {
				return nil, fmt.Errorf("initializing storage: %w", err)
			}
			if previous, _, err = store.LoadLinks(); err != nil {
				return nil, err
			}
		}
	}

	return activity.DiffLinks(previous, current).Added, nil
}
