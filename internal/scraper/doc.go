// Package scraper provides HTTP fetching and HTML parsing for THAT conference activities.
//
// The scraper package discovers activity links on the schedule index page by
// matching /activities/<id>/ hrefs, fetches activity detail pages (over plain
// HTTP or through a headless browser), and parses each page into an
// activity.Activity. Pages whose layout does not match the expected shape
// produce a *LayoutError so callers can skip and report them.
package scraper
