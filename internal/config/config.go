package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Values come from the YAML
// file, then environment variables override.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig describes where the log snapshots come from.
type ServerConfig struct {
	Addr         string `yaml:"addr" env:"ZEDSTATS_FTP_ADDR"`
	User         string `yaml:"user" env:"ZEDSTATS_FTP_USER"`
	Password     string `yaml:"password" env:"ZEDSTATS_FTP_PASSWORD"`
	LogDir       string `yaml:"log_dir" env:"ZEDSTATS_FTP_LOG_DIR"`
	EventLog     string `yaml:"event_log"`
	ConnectLog   string `yaml:"connect_log"`
	IdentityFeed string `yaml:"identity_feed"`
}

// OutputConfig describes the persisted canonical documents.
type OutputConfig struct {
	StatsPath    string `yaml:"stats_path" env:"ZEDSTATS_STATS_PATH"`
	PlaytimePath string `yaml:"playtime_path" env:"ZEDSTATS_PLAYTIME_PATH"`
	BackupDir    string `yaml:"backup_dir" env:"ZEDSTATS_BACKUP_DIR"`
	BackupsKeep  int    `yaml:"backups_keep"`
}

// HistoryConfig holds the run-history database settings.
type HistoryConfig struct {
	Path string `yaml:"path" env:"ZEDSTATS_HISTORY_PATH"`
}

// NotifyConfig holds the optional NATS run-summary settings. An empty URL
// disables notification.
type NotifyConfig struct {
	URL     string `yaml:"url" env:"ZEDSTATS_NATS_URL"`
	Subject string `yaml:"subject" env:"ZEDSTATS_NATS_SUBJECT"`
}

// SessionConfig tunes fallback playtime estimation.
type SessionConfig struct {
	Gap     time.Duration `yaml:"gap"`
	Padding time.Duration `yaml:"padding"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"ZEDSTATS_LOG_LEVEL"`
}

// Load reads configuration from a YAML file, applies environment overrides,
// and fills defaults. A missing config file is not an error; env and
// defaults still apply.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	// Set defaults
	if cfg.Server.EventLog == "" {
		cfg.Server.EventLog = "events.log"
	}
	if cfg.Server.ConnectLog == "" {
		cfg.Server.ConnectLog = "connects.log"
	}
	if cfg.Server.IdentityFeed == "" {
		cfg.Server.IdentityFeed = "players.db"
	}
	if cfg.Output.StatsPath == "" {
		cfg.Output.StatsPath = "data/players.json"
	}
	if cfg.Output.PlaytimePath == "" {
		cfg.Output.PlaytimePath = "data/playtime.json"
	}
	if cfg.Output.BackupsKeep == 0 {
		cfg.Output.BackupsKeep = 10
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "data/history.db"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "zedstats.runs"
	}
	if cfg.Session.Gap == 0 {
		cfg.Session.Gap = 30 * time.Minute
	}
	if cfg.Session.Padding == 0 {
		cfg.Session.Padding = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}
