// Package config provides configuration loading and validation for that-schedule.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// THAT_* environment variables, then command-line flags (applied by the cli
// package).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScheduleURL  = "https://that.us/events/wi/2022/schedule/"
	DefaultBaseURL      = "https://that.us/"
	DefaultCachePath    = ".cache"
	DefaultOutputDir    = "build"
	DefaultTemplatePath = "template.html"
	DefaultScheduleFile = "schedule.json"
	DefaultCron         = "0 * * * *"
	DefaultTimeout      = 30 * time.Second
)

// Cache invalidation policies
const (
	// InvalidateAll re-fetches every activity page when the link set changes.
	InvalidateAll = "all"
	// InvalidateChanged re-fetches only the pages of newly added links.
	InvalidateChanged = "changed"
)

// Description formats
const (
	DescriptionText     = "text"
	DescriptionMarkdown = "markdown"
)

// Selectors locate the activity fields on a detail page. An empty DateBlock or
// Description falls back to sibling position relative to the title.
type Selectors struct {
	Title       string `yaml:"title" validate:"required"`
	DateBlock   string `yaml:"date_block"`
	Description string `yaml:"description"`
}

// Config is the top-level application configuration.
type Config struct {
	// ScheduleURL is the schedule index page listing all activities.
	ScheduleURL string `yaml:"schedule_url" validate:"required,url"`
	// BaseURL is joined with activity link paths to build detail page URLs.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	CachePath string `yaml:"cache_path" validate:"required_unless=NoCache true"`
	NoCache   bool   `yaml:"no_cache"`
	// Invalidate is the cache invalidation policy when the link set changes.
	Invalidate string `yaml:"invalidate" validate:"oneof=all changed"`

	OutputDir    string `yaml:"output_dir" validate:"required"`
	TemplatePath string `yaml:"template_path" validate:"required"`
	ScheduleFile string `yaml:"schedule_file" validate:"required"`
	NoICS        bool   `yaml:"no_ics"`
	Sort         string `yaml:"sort" validate:"oneof=start title link"`

	DescriptionFormat string    `yaml:"description_format" validate:"oneof=text markdown"`
	Selectors         Selectors `yaml:"selectors"`

	// Strict aborts the whole run on the first activity with an unexpected layout.
	Strict bool `yaml:"strict"`
	// Browser renders pages in headless Chrome instead of a plain HTTP GET.
	Browser bool          `yaml:"browser"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// Cron is the schedule used by the watch command.
	Cron string `yaml:"cron"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	return &Config{
		ScheduleURL:       DefaultScheduleURL,
		BaseURL:           DefaultBaseURL,
		CachePath:         DefaultCachePath,
		Invalidate:        InvalidateAll,
		OutputDir:         DefaultOutputDir,
		TemplatePath:      DefaultTemplatePath,
		ScheduleFile:      DefaultScheduleFile,
		Sort:              "start",
		DescriptionFormat: DescriptionText,
		Selectors: Selectors{
			Title: "h2.text-2xl",
		},
		Timeout:  DefaultTimeout,
		Cron:     DefaultCron,
		LogLevel: "info",
	}
}

// Load builds a configuration from defaults, the YAML file at path (if path is
// non-empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()

	return cfg, nil
}

// ApplyEnv overrides values from THAT_* environment variables.
func (c *Config) ApplyEnv() {
	envs := map[string]*string{
		"THAT_SCHEDULE_URL": &c.ScheduleURL,
		"THAT_BASE_URL":     &c.BaseURL,
		"THAT_CACHE_PATH":   &c.CachePath,
		"THAT_OUTPUT_DIR":   &c.OutputDir,
		"THAT_CRON":         &c.Cron,
		"THAT_LOG_LEVEL":    &c.LogLevel,
	}
	for name, field := range envs {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*field = v
		}
	}
}

// Normalize fills in empty values left by a partial YAML file.
func (c *Config) Normalize() {
	def := Default()
	if c.Invalidate == "" {
		c.Invalidate = def.Invalidate
	}
	if c.Sort == "" {
		c.Sort = def.Sort
	}
	if c.DescriptionFormat == "" {
		c.DescriptionFormat = def.DescriptionFormat
	}
	if c.Selectors.Title == "" {
		c.Selectors.Title = def.Selectors.Title
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.Invalidate = strings.ToLower(c.Invalidate)
	c.Sort = strings.ToLower(c.Sort)
	c.DescriptionFormat = strings.ToLower(c.DescriptionFormat)
	c.LogLevel = strings.ToLower(c.LogLevel)
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateCron checks that the watch schedule is a standard 5-field cron spec.
func (c *Config) ValidateCron() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.Cron, err)
	}
	return nil
}
