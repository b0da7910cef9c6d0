package activity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the activity page date format without its timezone suffix,
// e.g. "Wednesday, July 27, 2022 - 7:30 PM".
const DateLayout = "Monday, January 2, 2006 - 3:04 PM"

// tzSuffix matches a trailing timezone abbreviation such as " UTC" or " CDT".
var tzSuffix = regexp.MustCompile(`\s+[A-Za-z]{2,5}$`)

// ParseStartTime parses an activity date line such as
// "Wednesday, July 27, 2022 - 7:30 PM UTC". The timezone abbreviation is
// dropped and the wall-clock time is interpreted as UTC.
func ParseStartTime(dateText string) (time.Time, error) {
	text := strings.TrimSpace(dateText)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	// Keep "AM"/"PM" when the line has no timezone
	if !strings.HasSuffix(text, "AM") && !strings.HasSuffix(text, "PM") {
		text = tzSuffix.ReplaceAllString(text, "")
	}

	t, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", dateText, err)
	}
	return t, nil
}

// ParseHours parses a duration line such as "1.5" into a positive number of hours
func ParseHours(text string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", text, err)
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", text)
	}
	return hours, nil
}

// IsHourUnit reports whether a duration unit line is expressed in hours
func IsHourUnit(text string) bool {
	return strings.Contains(strings.ToLower(text), "hour")
}
