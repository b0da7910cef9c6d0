// Package cli implements the command-line interface for that-schedule.
//
// The cli package provides the Cobra-based CLI: the root command builds the
// schedule once, --check-new only reports activities missing from the cache,
// and the watch subcommand rebuilds on a cron schedule. Settings are layered
// from defaults, an optional YAML file, THAT_* environment variables and
// flags, and the run summary is written to stdout as text or JSON.
package cli
