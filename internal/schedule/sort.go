package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/that-schedule/internal/activity"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByStart SortOrder = "start"
	SortByTitle SortOrder = "title"
	SortByLink  SortOrder = "link"
)

// ParseSortOrder validates a sort order name
func ParseSortOrder(name string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(name)))
	switch order {
	case SortByStart, SortByTitle, SortByLink:
		return order, nil
	case "":
		return SortByStart, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'start', 'title' or 'link')", name)
	}
}

// sortActivities sorts activities in place based on the specified sort order
func sortActivities(activities []*activity.Activity, order SortOrder) {
	switch order {
	case SortByTitle:
		sort.SliceStable(activities, func(i, j int) bool {
			ti, tj := strings.ToLower(activities[i].Title), strings.ToLower(activities[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by start time
			return compareByStart(activities[i], activities[j])
		})
	case SortByLink:
		sort.SliceStable(activities, func(i, j int) bool {
			return activities[i].Link < activities[j].Link
		})
	default:
		sort.SliceStable(activities, func(i, j int) bool {
			return compareByStart(activities[i], activities[j])
		})
	}
}

// compareByStart reports whether i starts before j.
// Ties are broken by title, then by link.
func compareByStart(i, j *activity.Activity) bool {
	if i.StartTime != j.StartTime {
		return i.StartTime < j.StartTime
	}
	ti, tj := strings.ToLower(i.Title), strings.ToLower(j.Title)
	if ti != tj {
		return ti < tj
	}
	return i.Link < j.Link
}
