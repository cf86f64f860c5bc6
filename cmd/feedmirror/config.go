package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	feedmirror "github.com/goliatone/go-feedmirror"
)

const envPrefix = "FEEDMIRROR"

// loadConfig layers defaults, the optional config file and FEEDMIRROR_*
// environment variables. A .env file in the working directory is loaded
// first when present.
func loadConfig(cfgFile string) (feedmirror.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return feedmirror.Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".feedmirror")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/feedmirror")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, feedmirror.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return feedmirror.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg feedmirror.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return feedmirror.Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return feedmirror.Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg feedmirror.Config) {
	v.SetDefault("root", cfg.Root)

	v.SetDefault("remote.base_url", cfg.Remote.BaseURL)
	v.SetDefault("remote.timeout", cfg.Remote.Timeout)
	v.SetDefault("remote.user_agent", cfg.Remote.UserAgent)
	v.SetDefault("remote.validate_schemas", cfg.Remote.ValidateSchemas)

	v.SetDefault("mirror.dir", cfg.Mirror.Dir)

	v.SetDefault("feeds.enabled", cfg.Feeds.Enabled)
	v.SetDefault("feeds.latest_file", cfg.Feeds.LatestFile)
	v.SetDefault("feeds.all_file", cfg.Feeds.AllFile)
	v.SetDefault("feeds.window", cfg.Feeds.Window)
	meta := cfg.Feeds.Metadata
	v.SetDefault("feeds.metadata.title", meta.Title)
	v.SetDefault("feeds.metadata.subtitle", meta.Subtitle)
	v.SetDefault("feeds.metadata.id", meta.ID)
	v.SetDefault("feeds.metadata.alternate_link", meta.AlternateLink)
	v.SetDefault("feeds.metadata.self_base", meta.SelfBase)
	v.SetDefault("feeds.metadata.icon", meta.Icon)
	v.SetDefault("feeds.metadata.logo", meta.Logo)
	v.SetDefault("feeds.metadata.rights_holder", meta.RightsHolder)
	v.SetDefault("feeds.metadata.generator", meta.Generator)
	v.SetDefault("feeds.metadata.generator_uri", meta.GeneratorURI)
	v.SetDefault("feeds.metadata.generator_version", meta.GeneratorVersion)
	v.SetDefault("feeds.metadata.article_url", meta.ArticleURL)
	v.SetDefault("feeds.metadata.default_category", meta.DefaultCategory)
	v.SetDefault("feeds.metadata.author.name", meta.Author.Name)
	v.SetDefault("feeds.metadata.author.email", meta.Author.Email)
	v.SetDefault("feeds.metadata.author.uri", meta.Author.URI)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.backend", cfg.History.Backend)
	v.SetDefault("history.tolerance", cfg.History.Tolerance)
	v.SetDefault("history.git_binary", cfg.History.GitBinary)
	v.SetDefault("history.ledger_dsn", cfg.History.LedgerDSN)

	v.SetDefault("readme.enabled", cfg.Readme.Enabled)
	v.SetDefault("readme.path", cfg.Readme.Path)

	v.SetDefault("snapshots.enabled", cfg.Snapshots.Enabled)
	v.SetDefault("snapshots.dir", cfg.Snapshots.Dir)

	v.SetDefault("export.enabled", cfg.Export.Enabled)
	v.SetDefault("export.dir", cfg.Export.Dir)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.textfile_path", cfg.Metrics.TextfilePath)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)

	v.SetDefault("commands.timeout", cfg.Commands.Timeout)
}
