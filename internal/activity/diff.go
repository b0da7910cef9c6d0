package activity

import (
	"sort"
	"strconv"
	"time"
)

// LinkDiff contains the results of comparing two link sets
type LinkDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// DiffLinks compares the current links against a previous set.
// A nil previous set is treated as empty, so every current link is new.
func DiffLinks(previous, current LinkSet) *LinkDiff {
	result := &LinkDiff{
		Added:   make([]string, 0),
		Removed: make([]string, 0),
	}

	for link := range current {
		if !previous.Contains(link) {
			result.Added = append(result.Added, link)
		}
	}

	for link := range previous {
		if !current.Contains(link) {
			result.Removed = append(result.Removed, link)
		}
	}

	// Sort for consistent output
	sort.Strings(result.Added)
	sort.Strings(result.Removed)

	return result
}

// Changed reports whether any link was added or removed
func (d *LinkDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Change represents a field that differs between two parses of the same activity
type Change struct {
	Link       string    `json:"link"`
	ChangeType string    `json:"change_type"` // "new", "title", "start_time", "end_time", "location"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two records of the same activity and returns detected changes
func DetectChanges(previous, current *Activity) []*Change {
	now := time.Now().UTC()

	// If no previous record, this is a new activity
	if previous == nil {
		return []*Change{
			{
				Link:       current.Link,
				ChangeType: "new",
				NewValue:   current.Title,
				DetectedAt: now,
			},
		}
	}

	var changes []*Change
	add := func(changeType, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &Change{
			Link:       current.Link,
			ChangeType: changeType,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	add("title", previous.Title, current.Title)
	add("start_time", formatUnix(previous.StartTime), formatUnix(current.StartTime))
	add("end_time", formatUnix(previous.EndTime), formatUnix(current.EndTime))
	add("location", previous.Location, current.Location)

	return changes
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return strconv.FormatInt(sec, 10)
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
