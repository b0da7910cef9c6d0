package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/that-schedule/internal/activity"
)

// ListingFile is the name of the known-activity listing inside the cache directory
const ListingFile = "activity_list.txt"

const recordExt = ".json"

// Storage handles persistence of cached activity data
type Storage struct {
	dataDir string
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandPath(dataDir)
	if err != nil {
		return nil, err
	}

	// Create cache directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the cache directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) listingPath() string {
	return filepath.Join(s.dataDir, ListingFile)
}

func (s *Storage) pagePath(id string) string {
	return filepath.Join(s.dataDir, id)
}

func (s *Storage) recordPath(id string) string {
	return filepath.Join(s.dataDir, id+recordExt)
}

// LoadLinks loads the known activity links. The boolean is false when no
// listing exists yet, which means the cache is absent.
func (s *Storage) LoadLinks() (activity.LinkSet, bool, error) {
	f, err := os.Open(s.listingPath())
	if err != nil {
		if os.IsNotExist(err) {
			return activity.NewLinkSet(), false, nil
		}
		return nil, false, fmt.Errorf("reading activity listing: %w", err)
	}
	defer f.Close()

	links := activity.NewLinkSet()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		links.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("reading activity listing: %w", err)
	}

	return links, true, nil
}

// SaveLinks rewrites the listing with the full set of links
func (s *Storage) SaveLinks(links activity.LinkSet) error {
	var b strings.Builder
	for _, link := range links.Sorted() {
		b.WriteString(link)
		b.WriteString("\n")
	}

	if err := os.WriteFile(s.listingPath(), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing activity listing: %w", err)
	}
	return nil
}

// ListingModTime returns when the listing was last written
func (s *Storage) ListingModTime() (time.Time, error) {
	info, err := os.Stat(s.listingPath())
	if err != nil {
		return time.Time{}, fmt.Errorf("reading activity listing: %w", err)
	}
	return info.ModTime(), nil
}

// ReadPage returns the cached HTML of an activity page.
// The boolean is false when the page has not been cached.
func (s *Storage) ReadPage(id string) (string, bool, error) {
	if err := checkID(id); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.pagePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cached page %s: %w", id, err)
	}
	return string(data), true, nil
}

// WritePage caches the HTML of an activity page
func (s *Storage) WritePage(id, html string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.WriteFile(s.pagePath(id), []byte(html), 0644); err != nil {
		return fmt.Errorf("writing cached page %s: %w", id, err)
	}
	return nil
}

// ReadActivity loads the parsed record of an activity.
// It returns nil without error when no record has been cached.
func (s *Storage) ReadActivity(id string) (*activity.Activity, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cached record %s: %w", id, err)
	}

	var a activity.Activity
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing cached record %s: %w", id, err)
	}
	return &a, nil
}

// WriteActivity stores the parsed record of an activity
func (s *Storage) WriteActivity(id string, a *activity.Activity) error {
	if err := checkID(id); err != nil {
		return err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", id, err)
	}

	if err := os.WriteFile(s.recordPath(id), data, 0644); err != nil {
		return fmt.Errorf("writing cached record %s: %w", id, err)
	}
	return nil
}

// checkID rejects ids that would escape the cache directory or collide with
// the listing or another activity's record file
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || id == ListingFile || strings.ContainsAny(id, `/\`) ||
		strings.HasSuffix(id, recordExt) {
		return fmt.Errorf("invalid activity id: %q", id)
	}
	return nil
}
