// Package render fills the static schedule page template.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Placeholders replaced in the template
const (
	ScheduleJSONPlaceholder = "{{SCHEDULE_JSON}}"
	LastUpdatedPlaceholder  = "{{LAST_UPDATED}}"
)

// PageFile is the name of the rendered page inside the output directory
const PageFile = "index.html"

// TimestampLayout is the human-readable form of the last-updated time
const TimestampLayout = "January 2, 2006 at 3:04 PM MST"

// FormatTimestamp formats t in UTC for display on the page
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Fill substitutes every placeholder occurrence in the template.
// Placeholders missing from the template are not an error.
func Fill(template string, scheduleJSON []byte, lastUpdated time.Time) string {
	r := strings.NewReplacer(
		ScheduleJSONPlaceholder, string(scheduleJSON),
		LastUpdatedPlaceholder, FormatTimestamp(lastUpdated),
	)
	return r.Replace(template)
}

// Page reads the template at templatePath, fills it and writes
// <outputDir>/index.html, creating the directory. It returns the page path.
func Page(templatePath, outputDir string, scheduleJSON []byte, lastUpdated time.Time) (string, error) {
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, PageFile)
	if err := os.WriteFile(path, []byte(Fill(string(tmpl), scheduleJSON, lastUpdated)), 0644); err != nil {
		return "", fmt.Errorf("writing page: %w", err)
	}

	return path, nil
}
