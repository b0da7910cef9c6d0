// Package storage provides the flat-file cache of activity links, pages and records.
//
// The cache directory (default .cache) holds activity_list.txt with one known
// activity link per line, the raw HTML of each activity page stored under its
// activity id, and the parsed record of each activity stored as <id>.json.
// The listing file's modification time doubles as the "last updated" stamp of
// the rendered schedule page.
package storage
