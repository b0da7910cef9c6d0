package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/that-schedule/internal/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleActivities() []*activity.Activity {
	return []*activity.Activity{
		{Title: "Kubernetes for Humans", StartTime: 1658739600, EndTime: 1658746800, Location: "Salon C", Description: "Pods.", Link: "https://that.us/activities/k8s/"},
		{Title: "Building CLIs in Go", StartTime: 1658950200, EndTime: 1658955600, Location: activity.Online, Description: "Cobra.", Link: "https://that.us/activities/cli/"},
		{Title: "apis with go", StartTime: 1658739600, EndTime: 1658743200, Location: activity.Online, Description: "", Link: "https://that.us/activities/api/"},
	}
}

func titles(activities []*activity.Activity) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		out = append(out, a.Title)
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByStart, []string{"apis with go", "Kubernetes for Humans", "Building CLIs in Go"}},
		{SortByTitle, []string{"apis with go", "Building CLIs in Go", "Kubernetes for Humans"}},
		{SortByLink, []string{"apis with go", "Building CLIs in Go", "Kubernetes for Humans"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			input := sampleActivities()
			got := Assemble(input, tt.order)
			assert.Equal(t, tt.want, titles(got))
			// Input order is left untouched
			assert.Equal(t, "Kubernetes for Humans", input[0].Title)
		})
	}

	t.Run("skips nil records", func(t *testing.T) {
		got := Assemble([]*activity.Activity{nil, sampleActivities()[0]}, SortByStart)
		assert.Len(t, got, 1)
	})
}

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("Title")
	require.NoError(t, err)
	assert.Equal(t, SortByTitle, order)

	order, err = ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortByStart, order)

	_, err = ParseSortOrder("room")
	assert.Error(t, err)
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Marshal(sampleActivities()[1:2])
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"title": "Building CLIs in Go",
		"start_time": 1658950200,
		"end_time": 1658955600,
		"location": "Online",
		"description": "Cobra.",
		"link": "https://that.us/activities/cli/"
	}]`, string(data))
}

func readSchedule(t *testing.T, path string) []*activity.Activity {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var activities []*activity.Activity
	require.NoError(t, json.Unmarshal(data, &activities))
	return activities
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "schedule.json")
	doc := Assemble(sampleActivities(), SortByStart)

	data, err := Write(path, doc)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	assert.Equal(t, doc, readSchedule(t, path))

	t.Run("rewriting the same schedule is byte-identical", func(t *testing.T) {
		again, err := Write(path, Assemble(sampleActivities(), SortByStart))
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})

	t.Run("overwrites previous output", func(t *testing.T) {
		_, err := Write(path, nil)
		require.NoError(t, err)

		assert.Empty(t, readSchedule(t, path))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty array", `[]`, false},
		{"valid record", `[{"title":"A","start_time":1,"end_time":2,"location":"Online","description":"","link":"https://that.us/activities/a/"}]`, false},
		{"not an array", `{}`, true},
		{"missing link", `[{"title":"A","start_time":1,"end_time":2,"location":"Online","description":""}]`, true},
		{"fractional time", `[{"title":"A","start_time":1.5,"end_time":2,"location":"Online","description":"","link":"https://that.us/a/"}]`, true},
		{"empty title", `[{"title":"","start_time":1,"end_time":2,"location":"Online","description":"","link":"https://that.us/a/"}]`, true},
		{"extra field", `[{"title":"A","start_time":1,"end_time":2,"location":"Online","description":"","link":"https://that.us/a/","room":"C"}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
