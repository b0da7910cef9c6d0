// Package activity provides the types and helpers describing THAT conference activities.
//
// The activity package holds the Activity record written to the schedule document,
// activity link handling (id extraction and link sets), the schedule date and
// duration formats found on activity pages, and diffing between runs: link sets
// are compared to find newly added activities, and records are compared to report
// changed titles, times, or locations.
package activity
