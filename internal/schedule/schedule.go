// Package schedule assembles parsed activities into the schedule document.
//
// The document is a single JSON array of activity records, sorted so that an
// unchanged set of activities always produces byte-identical output, and
// checked against an embedded JSON Schema before it is written.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pfrederiksen/that-schedule/internal/activity"
)

// Assemble returns the activities as a new slice in the given order
func Assemble(activities []*activity.Activity, order SortOrder) []*activity.Activity {
	doc := make([]*activity.Activity, 0, len(activities))
	for _, a := range activities {
		if a != nil {
			doc = append(doc, a)
		}
	}
	sortActivities(doc, order)
	return doc
}

// Marshal encodes the schedule document as a compact JSON array.
// An empty schedule encodes as [] rather than null.
func Marshal(activities []*activity.Activity) ([]byte, error) {
	if activities == nil {
		activities = []*activity.Activity{}
	}
	data, err := json.Marshal(activities)
	if err != nil {
		return nil, fmt.Errorf("encoding schedule: %w", err)
	}
	return data, nil
}

// Write validates the schedule document and writes it to path, replacing any previous file.
// It returns the encoded document.
func Write(path string, activities []*activity.Activity) ([]byte, error) {
	data, err := Marshal(activities)
	if err != nil {
		return nil, err
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating schedule directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing schedule: %w", err)
	}

	return data, nil
}
