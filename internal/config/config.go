package config

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/awards-cli/internal/transform"
)

// Config holds the full application configuration.
type Config struct {
	Reporter ReporterConfig `yaml:"reporter" mapstructure:"reporter"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ReporterConfig configures the RePORTER search and pagination limits.
type ReporterConfig struct {
	BaseURL          string      `yaml:"base_url" mapstructure:"base_url"`
	UserAgent        string      `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FiscalYears      []int       `yaml:"fiscal_years" mapstructure:"fiscal_years"`
	OrganizationType string      `yaml:"organization_type" mapstructure:"organization_type"`
	PageSize         int         `yaml:"page_size" mapstructure:"page_size"`
	MaxOffset        int         `yaml:"max_offset" mapstructure:"max_offset"`
	RequestDelayMs   int         `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	SortField        string      `yaml:"sort_field" mapstructure:"sort_field"`
	SortOrder        string      `yaml:"sort_order" mapstructure:"sort_order"`
	RateLimitRPS     float64     `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	Retry            RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RequestDelay returns the pause between chunk requests.
func (r ReporterConfig) RequestDelay() time.Duration {
	return time.Duration(r.RequestDelayMs) * time.Millisecond
}

// Timeout returns the HTTP client timeout.
func (r ReporterConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSecs) * time.Second
}

// RetryConfig configures the optional retry decorator. max_attempts 1
// keeps the plain skip-on-error behavior.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// RulesConfig overrides the name normalization tables. A YAML file is
// loaded first; inline tables then replace whole tables from it.
type RulesConfig struct {
	File         string           `yaml:"file" mapstructure:"file"`
	SpecialCases []transform.Rule `yaml:"special_cases" mapstructure:"special_cases"`
	Organization []transform.Rule `yaml:"organization" mapstructure:"organization"`
	City         []transform.Rule `yaml:"city" mapstructure:"city"`
}

// Resolve returns the effective rule tables.
func (r RulesConfig) Resolve() (transform.Rules, error) {
	rules := transform.DefaultRules()
	if r.File != "" {
		loaded, err := transform.LoadRules(r.File)
		if err != nil {
			return transform.Rules{}, eris.Wrap(err, "config: load rules")
		}
		rules = loaded
	}
	return transform.Merge(rules, transform.Rules{
		SpecialCases: r.SpecialCases,
		Organization: r.Organization,
		City:         r.City,
	}), nil
}

// OutputConfig configures where rows are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Prefix  string   `yaml:"prefix" mapstructure:"prefix"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Supported output formats and store drivers.
var (
	OutputFormats = []string{"csv", "xlsx", "postgres"}
	StoreDrivers  = []string{"sqlite", "postgres", "none"}
)

// Bounds the API accepts. Records start in fiscal year 1985.
const (
	maxPageSize   = 500
	maxOffset     = 14999
	minFiscalYear = 1985
	maxFiscalYear = 2100
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AWARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("reporter.base_url", "https://api.reporter.nih.gov/v2")
	v.SetDefault("reporter.user_agent", "awards-cli/1.0")
	v.SetDefault("reporter.timeout_secs", 60)
	v.SetDefault("reporter.fiscal_years", []int{time.Now().Year()})
	v.SetDefault("reporter.organization_type", "SCHOOLS OF MEDICINE")
	v.SetDefault("reporter.page_size", maxPageSize)
	v.SetDefault("reporter.max_offset", maxOffset)
	v.SetDefault("reporter.request_delay_ms", 500)
	v.SetDefault("reporter.sort_field", "project_start_date")
	v.SetDefault("reporter.sort_order", "desc")
	v.SetDefault("reporter.rate_limit_rps", 0)
	v.SetDefault("reporter.retry.max_attempts", 1)
	v.SetDefault("reporter.retry.initial_backoff_ms", 500)
	v.SetDefault("reporter.retry.max_backoff_ms", 30000)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.prefix", "MedicalSchoolsOnly")
	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "awards.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail mid-run.
func (c *Config) Validate() error {
	r := c.Reporter
	if r.PageSize <= 0 || r.PageSize > maxPageSize {
		return eris.Errorf("config: reporter.page_size %d outside 1..%d", r.PageSize, maxPageSize)
	}
	if r.MaxOffset < 0 || r.MaxOffset > maxOffset {
		return eris.Errorf("config: reporter.max_offset %d outside 0..%d", r.MaxOffset, maxOffset)
	}
	if r.RequestDelayMs < 0 {
		return eris.Errorf("config: reporter.request_delay_ms must not be negative (got %d)", r.RequestDelayMs)
	}
	if strings.TrimSpace(r.OrganizationType) == "" {
		return eris.New("config: reporter.organization_type is required")
	}
	if len(r.FiscalYears) == 0 {
		return eris.New("config: reporter.fiscal_years is empty")
	}
	if err := ValidateFiscalYears(r.FiscalYears); err != nil {
		return err
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(OutputFormats, f) {
			return eris.Errorf("config: unknown output format %q (valid: %s)", f, strings.Join(OutputFormats, ", "))
		}
	}
	if !slices.Contains(StoreDrivers, c.Store.Driver) {
		return eris.Errorf("config: unknown store driver %q (valid: %s)", c.Store.Driver, strings.Join(StoreDrivers, ", "))
	}
	if slices.Contains(c.Output.Formats, "postgres") && c.Store.Driver != "postgres" {
		return eris.New("config: output format postgres requires store.driver postgres")
	}
	return nil
}

// ValidateFiscalYears rejects years RePORTER cannot hold.
func ValidateFiscalYears(years []int) error {
	for _, fy := range years {
		if fy < minFiscalYear || fy > maxFiscalYear {
			return eris.Errorf("config: fiscal year %d outside %d..%d", fy, minFiscalYear, maxFiscalYear)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
