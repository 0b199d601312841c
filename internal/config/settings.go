package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Sabbasth/rp-exporter/internal/diskusage"
)

// EnvPrefix is prepended to every environment variable mirroring a flag.
const EnvPrefix = "RP_EXPORTER"

// Settings is the effective exporter configuration.
type Settings struct {
	ConsoleURL      string             `mapstructure:"console_url" yaml:"console_url"`
	Host            string             `mapstructure:"host" yaml:"host"`
	Port            int                `mapstructure:"port" yaml:"port"`
	MetricsPath     string             `mapstructure:"metrics_path" yaml:"metrics_path"`
	Interval        int                `mapstructure:"interval" yaml:"interval"`
	Timeout         int                `mapstructure:"timeout" yaml:"timeout"`
	Strategy        diskusage.Strategy `mapstructure:"strategy" yaml:"strategy"`
	DetailRateLimit float64            `mapstructure:"detail_rate_limit" yaml:"detail_rate_limit"`
	PruneMissing    bool               `mapstructure:"prune_missing" yaml:"prune_missing"`
	LogLevel        string             `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string             `mapstructure:"log_format" yaml:"log_format"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		Host:        "0.0.0.0",
		Port:        8000,
		MetricsPath: "/metrics",
		Interval:    30,
		Timeout:     10,
		Strategy:    diskusage.StrategyAuto,
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Addr returns the listen address for the metrics server.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IntervalDuration returns the pause between collection cycles.
func (s *Settings) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

// TimeoutDuration returns the per-request timeout for console calls.
func (s *Settings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Validate reports every invalid field at once.
func (s *Settings) Validate() error {
	var errs []error

	if s.ConsoleURL == "" {
		errs = append(errs, errors.New("console_url is required"))
	} else if u, err := url.Parse(s.ConsoleURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("console_url %q must be an absolute http(s) URL", s.ConsoleURL))
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", s.Port))
	}
	switch {
	case !strings.HasPrefix(s.MetricsPath, "/") || s.MetricsPath == "/":
		errs = append(errs, fmt.Errorf("metrics_path %q must start with / and not be the root", s.MetricsPath))
	case s.MetricsPath == "/healthz":
		errs = append(errs, errors.New("metrics_path must not be /healthz"))
	case strings.ContainsAny(s.MetricsPath, "{} \t"):
		errs = append(errs, fmt.Errorf("metrics_path %q must not contain braces or whitespace", s.MetricsPath))
	}
	if s.Interval < 1 {
		errs = append(errs, fmt.Errorf("interval must be at least 1 second, got %d", s.Interval))
	}
	if s.Timeout < 1 {
		errs = append(errs, fmt.Errorf("timeout must be at least 1 second, got %d", s.Timeout))
	}
	if _, err := diskusage.ParseStrategy(string(s.Strategy)); err != nil {
		errs = append(errs, err)
	}
	if s.DetailRateLimit < 0 {
		errs = append(errs, fmt.Errorf("detail_rate_limit must not be negative, got %g", s.DetailRateLimit))
	}
	if _, err := zapcore.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q must be one of debug, info, warn, error", s.LogLevel))
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be json or console", s.LogFormat))
	}

	return errors.Join(errs...)
}

// YAML renders the settings in the same layout a config file uses.
func (s *Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("render settings: %w", err)
	}
	return out, nil
}

// Invocation is the outcome of parsing a command line.
type Invocation struct {
	Settings    *Settings
	ConfigFile  string
	PrintConfig bool
	ShowVersion bool
}

// flagKeys maps command-line flag names to viper keys. config and
// print_config are not settings but still read from flags or environment.
var flagKeys = map[string]string{
	"config":            "config",
	"print-config":      "print_config",
	"console-url":       "console_url",
	"host":              "host",
	"port":              "port",
	"metrics-path":      "metrics_path",
	"interval":          "interval",
	"timeout":           "timeout",
	"strategy":          "strategy",
	"detail-rate-limit": "detail_rate_limit",
	"prune-missing":     "prune_missing",
	"log-level":         "log_level",
	"log-format":        "log_format",
}

// NewFlagSet declares every rp-exporter flag on a fresh flag set.
func NewFlagSet(name string) *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.String("console-url", "", "URL of the Redpanda Console (e.g., http://localhost:8080)")
	fs.Int("port", d.Port, "Port on which the exporter HTTP server will listen")
	fs.Int("interval", d.Interval, "Interval in seconds between metrics collection")
	fs.String("host", d.Host, "Address the exporter HTTP server binds to")
	fs.String("metrics-path", d.MetricsPath, "Path under which metrics are exposed")
	fs.Int("timeout", d.Timeout, "Timeout in seconds for each console API request")
	fs.String("strategy", string(d.Strategy), "Collection strategy: auto, summary (per topic) or detail (per partition)")
	fs.Float64("detail-rate-limit", d.DetailRateLimit, "Maximum topic detail requests per second (0 = unlimited)")
	fs.Bool("prune-missing", d.PruneMissing, "Drop series of topics no longer listed by the console")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "Log format: json or console")

	fs.String("config", "", "Path to an optional YAML configuration file")
	fs.Bool("print-config", false, "Print the effective configuration and exit")
	fs.Bool("version", false, "Print version information and exit")

	return fs
}

// Parse parses args with NewFlagSet and resolves them through Load.
func Parse(name string, args []string) (*Invocation, error) {
	fs := NewFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return Load(fs)
}

// Load resolves settings from a parsed flag set carrying the NewFlagSet
// flags, the environment and an optional config file, in that order of
// precedence. Settings are validated unless the caller only asked for the
// version or the effective configuration.
func Load(fs *pflag.FlagSet) (*Invocation, error) {
	inv := &Invocation{}
	inv.ShowVersion, _ = fs.GetBool("version")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", flagName, err)
		}
	}

	cfg := New(v)
	inv.ConfigFile = cfg.GetString("config")
	inv.PrintConfig = cfg.GetBool("print_config")

	if inv.ConfigFile != "" {
		v.SetConfigFile(inv.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", inv.ConfigFile, err)
		}
	}

	s := &Settings{}
	if err := cfg.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.ConsoleURL = strings.TrimRight(s.ConsoleURL, "/")
	inv.Settings = s

	if inv.ShowVersion || inv.PrintConfig {
		return inv, nil
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return inv, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("console_url", d.ConsoleURL)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("metrics_path", d.MetricsPath)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("strategy", d.Strategy)
	v.SetDefault("detail_rate_limit", d.DetailRateLimit)
	v.SetDefault("prune_missing", d.PruneMissing)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}
