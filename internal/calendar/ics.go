// Package calendar exports the schedule as an iCalendar feed.
package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pfrederiksen/that-schedule/internal/activity"
)

// CalendarFile is the name of the feed inside the output directory
const CalendarFile = "schedule.ics"

const productID = "-//that-schedule//THAT Conference Schedule//EN"

// EventUID returns the stable UID of an activity, derived from its link
func EventUID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// Build creates a calendar with one VEVENT per activity. stamp is used as
// DTSTAMP so unchanged activities serialize identically.
func Build(activities []*activity.Activity, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetName("THAT Conference")

	for _, a := range activities {
		if a == nil {
			continue
		}
		evt := cal.AddEvent(EventUID(a.Link))
		evt.SetDtStampTime(stamp.UTC())
		evt.SetStartAt(a.Start())
		evt.SetEndAt(a.End())
		evt.SetSummary(a.Title)
		evt.SetLocation(a.Location)
		if a.Description != "" {
			evt.SetDescription(a.Description)
		}
		evt.SetURL(a.Link)
	}

	return cal
}

// GenerateICS serializes the activities as an iCalendar document with CRLF line endings
func GenerateICS(activities []*activity.Activity, stamp time.Time) string {
	return Build(activities, stamp).Serialize(ical.WithNewLineWindows)
}

// WriteICS writes <outputDir>/schedule.ics and returns its path
func WriteICS(outputDir string, activities []*activity.Activity, stamp time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, CalendarFile)
	if err := os.WriteFile(path, []byte(GenerateICS(activities, stamp)), 0644); err != nil {
		return "", fmt.Errorf("writing calendar: %w", err)
	}
	return path, nil
}
