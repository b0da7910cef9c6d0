package activity

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Online is the location used for activities without a physical room.
const Online = "Online"

var validate = validator.New()

// Activity represents one scheduled session of the conference
type Activity struct {
	Title       string `json:"title" validate:"required"`
	StartTime   int64  `json:"start_time" validate:"required"`
	EndTime     int64  `json:"end_time" validate:"gtfield=StartTime"` // Always after StartTime
	Location    string `json:"location" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"required,url"`
}

// NewActivity creates an Activity lasting the given number of hours.
// Fractional hours are rounded to whole seconds.
func NewActivity(title string, start time.Time, hours float64, location, description, link string) *Activity {
	end := start.Add(time.Duration(math.Round(hours*3600)) * time.Second)
	return &Activity{
		Title:       title,
		StartTime:   start.Unix(),
		EndTime:     end.Unix(),
		Location:    location,
		Description: description,
		Link:        link,
	}
}

// Start returns the start time in UTC
func (a *Activity) Start() time.Time {
	return time.Unix(a.StartTime, 0).UTC()
}

// End returns the end time in UTC
func (a *Activity) End() time.Time {
	return time.Unix(a.EndTime, 0).UTC()
}

// Duration returns how long the activity runs
func (a *Activity) Duration() time.Duration {
	return time.Duration(a.EndTime-a.StartTime) * time.Second
}

// Validate checks the record invariants, including EndTime > StartTime.
func (a *Activity) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid activity %q: %w", a.Title, err)
	}
	return nil
}
