package activity

import (
	"regexp"
	"sort"
	"strings"
)

// createID is the id of the "create activity" link, which is not an activity.
const createID = "create"

var linkPattern = regexp.MustCompile(`/activities/([^/]+)/`)

// ExtractID returns the activity id of a link such as /activities/abc123/.
// It reports false for links that do not name an activity.
func ExtractID(link string) (string, bool) {
	matches := linkPattern.FindStringSubmatch(link)
	if matches == nil || matches[1] == createID {
		return "", false
	}
	return matches[1], true
}

// IsActivityLink reports whether link points to an activity page
func IsActivityLink(link string) bool {
	_, ok := ExtractID(link)
	return ok
}

// LinkSet is a set of distinct activity links
type LinkSet map[string]struct{}

// NewLinkSet creates a set from the given links. Surrounding whitespace is trimmed
// and empty links are ignored.
func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, link := range links {
		s.Add(link)
	}
	return s
}

// Add inserts a link into the set
func (s LinkSet) Add(link string) {
	link = strings.TrimSpace(link)
	if link == "" {
		return
	}
	s[link] = struct{}{}
}

// Contains reports whether link is in the set
func (s LinkSet) Contains(link string) bool {
	_, ok := s[strings.TrimSpace(link)]
	return ok
}

// Len returns the number of links
func (s LinkSet) Len() int {
	return len(s)
}

// Sorted returns the links in lexical order
func (s LinkSet) Sorted() []string {
	links := make([]string, 0, len(s))
	for link := range s {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

// Equal reports whether both sets hold exactly the same links
func (s LinkSet) Equal(other LinkSet) bool {
	if len(s) != len(other) {
		return false
	}
	for link := range s {
		if _, ok := other[link]; !ok {
			return false
		}
	}
	return true
}
