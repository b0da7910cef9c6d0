package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pfrederiksen/that-schedule/internal/config"
	"github.com/pfrederiksen/that-schedule/internal/logger"
	"github.com/pfrederiksen/that-schedule/internal/pipeline"
	"github.com/pfrederiksen/that-schedule/internal/schedule"
	"github.com/pfrederiksen/that-schedule/internal/scraper"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitNewActivities = 2
)

// ExitCodeError carries a non-zero exit code that is not a failure by itself
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var (
	flagConfig       string
	flagCachePath    string
	flagOutputDir    string
	flagScheduleURL  string
	flagBaseURL      string
	flagTemplate     string
	flagScheduleFile string
	flagSort         string
	flagFormat       string
	flagNoCache      bool
	flagCheckNew     bool
	flagStrict       bool
	flagNoICS        bool
	flagBrowser      bool
	flagVerbose      bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "that-schedule",
		Short: "Build a static THAT Conference schedule page",
		Long: `A CLI tool that scrapes the THAT Conference schedule, caches every
activity page, and publishes the schedule as JSON, a static HTML page and an
iCalendar feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBuild,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Optional YAML config file")
	flags.StringVar(&flagCachePath, "cache-path", config.DefaultCachePath, "Cache directory for activity pages")
	flags.StringVar(&flagOutputDir, "output-dir", config.DefaultOutputDir, "Directory for index.html and schedule.ics")
	flags.StringVar(&flagScheduleURL, "schedule-url", config.DefaultScheduleURL, "Schedule index page")
	flags.StringVar(&flagBaseURL, "base-url", config.DefaultBaseURL, "Base URL for activity links")
	flags.StringVar(&flagTemplate, "template", config.DefaultTemplatePath, "HTML page template")
	flags.StringVar(&flagScheduleFile, "schedule-file", config.DefaultScheduleFile, "Path of the schedule JSON document")
	flags.StringVar(&flagSort, "sort", "start", "Schedule order: start, title or link")
	flags.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	flags.BoolVar(&flagNoCache, "no-cache", false, "Disable all cache reads and writes")
	flags.BoolVar(&flagStrict, "strict", false, "Abort on the first activity with an unexpected layout")
	flags.BoolVar(&flagNoICS, "no-ics", false, "Skip the iCalendar export")
	flags.BoolVar(&flagBrowser, "browser", false, "Render pages in headless Chrome")
	flags.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.Flags().BoolVar(&flagCheckNew, "check-new", false, "Only report activities missing from the cache (exit 2 if any)")

	cmd.AddCommand(newWatchCmd())

	return cmd
}

// loadConfig layers defaults, the config file, the environment and explicitly set flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	strs := map[string]struct {
		dst *string
		val string
	}{
		"cache-path":    {&cfg.CachePath, flagCachePath},
		"output-dir":    {&cfg.OutputDir, flagOutputDir},
		"schedule-url":  {&cfg.ScheduleURL, flagScheduleURL},
		"base-url":      {&cfg.BaseURL, flagBaseURL},
		"template":      {&cfg.TemplatePath, flagTemplate},
		"schedule-file": {&cfg.ScheduleFile, flagScheduleFile},
		"sort":          {&cfg.Sort, flagSort},
	}
	for name, f := range strs {
		if flags.Changed(name) {
			*f.dst = f.val
		}
	}

	bools := map[string]struct {
		dst *bool
		val bool
	}{
		"no-cache": {&cfg.NoCache, flagNoCache},
		"strict":   {&cfg.Strict, flagStrict},
		"no-ics":   {&cfg.NoICS, flagNoICS},
		"browser":  {&cfg.Browser, flagBrowser},
	}
	for name, f := range bools {
		if flags.Changed(name) {
			*f.dst = f.val
		}
	}

	if flagVerbose {
		cfg.LogLevel = "debug"
	}

	order, err := schedule.ParseSortOrder(cfg.Sort)
	if err != nil {
		return nil, err
	}
	cfg.Sort = string(order)

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger installs the default logger at the configured level
func setupLogger(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, os.Stderr))
	return nil
}

// newFetcher returns the page fetcher for cfg and a function releasing it
func newFetcher(ctx context.Context, cfg *config.Config) (scraper.Fetcher, func(), error) {
	if !cfg.Browser {
		return scraper.NewHTTPFetcher(cfg.Timeout), func() {}, nil
	}

	bf, err := scraper.NewBrowserFetcher(ctx, cfg.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("starting browser: %w", err)
	}
	return bf, func() {
		if err := bf.Close(); err != nil {
			logger.Warn("Closing browser", logger.Fields{"error": err.Error()})
		}
	}, nil
}

func parseFormat(name string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", name)
	}
	return format, nil
}

// runBuild is the main command logic
func runBuild(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fetcher, closeFetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	opts := pipeline.OptionsFromConfig(cfg, fetcher)
	out := cmd.OutOrStdout()

	if flagCheckNew {
		added, err := pipeline.CheckNew(ctx, opts)
		if err != nil {
			return err
		}
		if err := WriteCheckNew(out, &CheckNewResult{
			CheckedAt:     time.Now().UTC(),
			NewActivities: added,
			Count:         len(added),
		}, format); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if len(added) > 0 {
			return &ExitCodeError{Code: ExitNewActivities}
		}
		return nil
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	if err := WriteOutput(out, NewRunSummary(result), format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command tree with args and maps the outcome to an exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var layoutErr *scraper.LayoutError
	if errors.As(err, &layoutErr) && layoutErr.Block != "" {
		fmt.Fprintln(stderr, "==============")
		fmt.Fprintln(stderr, layoutErr.Block)
		fmt.Fprintln(stderr, "==============")
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}
