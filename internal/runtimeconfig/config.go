package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-feedmirror/internal/feeds"
)

var (
	ErrRemoteBaseURLRequired    = errors.New("feedmirror config: remote base url is required")
	ErrRemoteTimeoutInvalid     = errors.New("feedmirror config: remote timeout must be positive")
	ErrMirrorDirRequired        = errors.New("feedmirror config: mirror directory is required")
	ErrFeedWindowInvalid        = errors.New("feedmirror config: feed window must be zero or positive")
	ErrFeedFileRequired         = errors.New("feedmirror config: feed file names are required when feeds are enabled")
	ErrHistoryBackendUnknown    = errors.New("feedmirror config: history backend is invalid")
	ErrHistoryToleranceInvalid  = errors.New("feedmirror config: history tolerance must be zero or positive")
	ErrHistoryLedgerDSNRequired = errors.New("feedmirror config: ledger dsn is required for the ledger backend")
	ErrReadmePathRequired       = errors.New("feedmirror config: readme path is required when readme is enabled")
	ErrSnapshotDirRequired      = errors.New("feedmirror config: snapshot directory is required when snapshots are enabled")
	ErrExportDirRequired        = errors.New("feedmirror config: export directory is required when export is enabled")
	ErrMetricsTextfileRequired  = errors.New("feedmirror config: metrics textfile path is required when metrics are enabled")
	ErrLoggingProviderRequired  = errors.New("feedmirror config: logging provider is required")
	ErrLoggingProviderUnknown   = errors.New("feedmirror config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("feedmirror config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("feedmirror config: logging format is invalid")
	ErrCommandTimeoutInvalid    = errors.New("feedmirror config: command timeout must not be negative")
)

// Config aggregates the settings of one mirror workspace. Paths are relative
// to Root, which is also the history work tree.
type Config struct {
	Root      string         `mapstructure:"root"`
	Remote    RemoteConfig   `mapstructure:"remote"`
	Mirror    MirrorConfig   `mapstructure:"mirror"`
	Feeds     FeedsConfig    `mapstructure:"feeds"`
	History   HistoryConfig  `mapstructure:"history"`
	Readme    ReadmeConfig   `mapstructure:"readme"`
	Snapshots SnapshotConfig `mapstructure:"snapshots"`
	Export    ExportConfig   `mapstructure:"export"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Logging   LoggingConfig  `mapstructure:"logging"`
	Commands  CommandsConfig `mapstructure:"commands"`
}

// RemoteConfig points at the CMS.
type RemoteConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	ValidateSchemas bool          `mapstructure:"validate_schemas"`
}

// MirrorConfig locates the JSON records.
type MirrorConfig struct {
	Dir string `mapstructure:"dir"`
}

// FeedsConfig controls the published Atom documents.
type FeedsConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	LatestFile string         `mapstructure:"latest_file"`
	AllFile    string         `mapstructure:"all_file"`
	Window     int            `mapstructure:"window"`
	Metadata   feeds.Metadata `mapstructure:"metadata"`
}

// HistoryConfig selects the revision log.
type HistoryConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend"`
	Tolerance time.Duration `mapstructure:"tolerance"`
	GitBinary string        `mapstructure:"git_binary"`
	LedgerDSN string        `mapstructure:"ledger_dsn"`
}

// ReadmeConfig controls the generated article listing.
type ReadmeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SnapshotConfig controls the per-article HTML pages.
type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// ExportConfig controls the markdown export.
type ExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// CommandsConfig tunes the command handlers. A zero Timeout lets every
// command run to completion.
type CommandsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	HistoryBackendGit    = "git"
	HistoryBackendLedger = "ledger"
	HistoryBackendMemory = "memory"
)

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Root: ".",
		Remote: RemoteConfig{
			BaseURL:         "https://hw-media-cdn-mingchao.kurogame.com/akiwebsite/website2.0/json/G152/en",
			Timeout:         30 * time.Second,
			ValidateSchemas: true,
		},
		Mirror: MirrorConfig{
			Dir: "articles",
		},
		Feeds: FeedsConfig{
			Enabled:    true,
			LatestFile: "articles_latest.xml",
			AllFile:    "articles_all.xml",
			Window:     feeds.LatestWindow,
			Metadata:   feeds.DefaultMetadata(),
		},
		History: HistoryConfig{
			Enabled:   true,
			Backend:   HistoryBackendGit,
			Tolerance: time.Second,
			GitBinary: "git",
		},
		Readme: ReadmeConfig{
			Enabled: true,
			Path:    "README.md",
		},
		Snapshots: SnapshotConfig{
			Enabled: true,
			Dir:     "html",
		},
		Export: ExportConfig{
			Dir: "markdown",
		},
		Metrics: MetricsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return ErrRemoteBaseURLRequired
	}
	if cfg.Remote.Timeout <= 0 {
		return ErrRemoteTimeoutInvalid
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	if strings.TrimSpace(cfg.Mirror.Dir) == "" {
		return ErrMirrorDirRequired
	}
	if cfg.Feeds.Window < 0 {
		return fmt.Errorf("%w: %d", ErrFeedWindowInvalid, cfg.Feeds.Window)
	}
	if cfg.Feeds.Enabled && (strings.TrimSpace(cfg.Feeds.LatestFile) == "" || strings.TrimSpace(cfg.Feeds.AllFile) == "") {
		return ErrFeedFileRequired
	}
	if cfg.History.Enabled {
		switch normalize(cfg.History.Backend) {
		case HistoryBackendGit, HistoryBackendMemory:
		case HistoryBackendLedger:
			if strings.TrimSpace(cfg.History.LedgerDSN) == "" {
				return ErrHistoryLedgerDSNRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrHistoryBackendUnknown, cfg.History.Backend)
		}
		if cfg.History.Tolerance < 0 {
			return ErrHistoryToleranceInvalid
		}
	}
	if cfg.Readme.Enabled && strings.TrimSpace(cfg.Readme.Path) == "" {
		return ErrReadmePathRequired
	}
	if cfg.Snapshots.Enabled && strings.TrimSpace(cfg.Snapshots.Dir) == "" {
		return ErrSnapshotDirRequired
	}
	if cfg.Export.Enabled && strings.TrimSpace(cfg.Export.Dir) == "" {
		return ErrExportDirRequired
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.TextfilePath) == "" {
		return ErrMetricsTextfileRequired
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
