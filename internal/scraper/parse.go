package scraper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/that-schedule/internal/activity"
)

// Date block shapes: online activities have 7 lines, in-person ones add three
// more, the last being the room.
const (
	onlineBlockLines   = 7
	inPersonBlockLines = 10
)

var (
	// ErrLineCount means the date block has neither the online nor the in-person shape.
	ErrLineCount = errors.New("unexpected date block line count")
	// ErrDurationUnit means the duration is not expressed in hours.
	ErrDurationUnit = errors.New("duration unit is not hours")
)

// Selectors locate the activity fields on a detail page
type Selectors struct {
	Title string
	// DateBlock defaults to the first element after the title.
	DateBlock string
	// Description defaults to the second element after the date block.
	Description string
}

// DefaultSelectors matches the THAT activity page layout
func DefaultSelectors() Selectors {
	return Selectors{Title: "h2.text-2xl"}
}

// DateBlock holds the fields read from an activity's date block
type DateBlock struct {
	Start    time.Time
	Hours    float64
	Location string
}

// ParseDateBlock reads the date, duration and location lines of a date block.
// A 7-line block is an online activity; a 10-line block ends with the location.
func ParseDateBlock(lines []string) (*DateBlock, error) {
	var location string
	switch len(lines) {
	case onlineBlockLines:
		location = activity.Online
	case inPersonBlockLines:
		location = lines[inPersonBlockLines-1]
	default:
		return nil, fmt.Errorf("%w: got %d, want %d or %d", ErrLineCount, len(lines), onlineBlockLines, inPersonBlockLines)
	}

	start, err := activity.ParseStartTime(lines[0])
	if err != nil {
		return nil, err
	}

	hours, err := activity.ParseHours(lines[1])
	if err != nil {
		return nil, err
	}

	if !activity.IsHourUnit(lines[2]) {
		return nil, fmt.Errorf("%w: %q", ErrDurationUnit, strings.TrimSpace(lines[2]))
	}

	return &DateBlock{
		Start:    start,
		Hours:    hours,
		Location: location,
	}, nil
}

// Parser extracts activity records from detail pages
type Parser struct {
	selectors Selectors
	converter *md.Converter // nil keeps descriptions as plain text
}

// NewParser creates a Parser. With markdown set, descriptions are converted
// from HTML to Markdown instead of flattened to text.
func NewParser(selectors Selectors, markdown bool) *Parser {
	if selectors.Title == "" {
		selectors.Title = DefaultSelectors().Title
	}

	p := &Parser{selectors: selectors}
	if markdown {
		p.converter = md.NewConverter("", true, nil)
	}
	return p
}

// Parse extracts the activity found at pageURL. Layout problems are returned as *LayoutError.
func (p *Parser) Parse(html, pageURL string) (*activity.Activity, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	titleSel := doc.Find(p.selectors.Title).First()
	if titleSel.Length() == 0 {
		return nil, &LayoutError{Link: pageURL, Reason: "title not found"}
	}
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return nil, &LayoutError{Link: pageURL, Reason: "empty title"}
	}

	var dateSel *goquery.Selection
	if p.selectors.DateBlock != "" {
		dateSel = doc.Find(p.selectors.DateBlock).First()
	} else {
		dateSel = titleSel.Next()
	}
	if dateSel.Length() == 0 {
		return nil, &LayoutError{Link: pageURL, Reason: "date block not found"}
	}

	blockText := strings.TrimSpace(dateSel.Text())
	block, err := ParseDateBlock(strings.Split(blockText, "\n"))
	if err != nil {
		return nil, &LayoutError{Link: pageURL, Reason: "reading date block", Block: blockText, Cause: err}
	}

	description, err := p.description(doc, dateSel)
	if err != nil {
		return nil, &LayoutError{Link: pageURL, Reason: "reading description", Cause: err}
	}

	a := activity.NewActivity(title, block.Start, block.Hours, block.Location, description, pageURL)
	if err := a.Validate(); err != nil {
		return nil, &LayoutError{Link: pageURL, Reason: "invalid record", Block: blockText, Cause: err}
	}

	return a, nil
}

// description returns the description text, or "" when the page has none
func (p *Parser) description(doc *goquery.Document, dateSel *goquery.Selection) (string, error) {
	var sel *goquery.Selection
	if p.selectors.Description != "" {
		sel = doc.Find(p.selectors.Description).First()
	} else {
		sel = dateSel.NextAll().Eq(1)
	}
	if sel.Length() == 0 {
		return "", nil
	}

	if p.converter == nil {
		return strings.TrimSpace(sel.Text()), nil
	}

	inner, err := sel.Html()
	if err != nil {
		return "", err
	}
	markdown, err := p.converter.ConvertString(inner)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
