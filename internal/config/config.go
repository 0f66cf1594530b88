package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables
// and an optional config file named by DASHBOARD_CONFIG.
type Config struct {
	ClimateDataPath string
	ForestDataPath  string
	CSVDelimiter    rune

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CountryCacheSize int

	// Snapshot publishing of the normalized forest table.
	KafkaBrokers       []string
	KafkaSnapshotTopic string
	SnapshotEnabled    bool
}

const defaultCountryCacheSize = 512

// Load reads configuration from environment variables, applying defaults
// where unset. Environment wins over the config file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("climate_data_path", "data/climate_change_data.csv")
	v.SetDefault("forest_data_path", "data/goal15.forest_shares.csv")
	v.SetDefault("csv_delimiter", ",")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("country_cache_size", defaultCountryCacheSize)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_snapshot_topic", "forest-trends-normalized")
	v.SetDefault("snapshot_enabled", "")
	v.AutomaticEnv()

	if path := v.GetString("dashboard_config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read DASHBOARD_CONFIG: %w", err)
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown_timeout"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	delimiter, err := parseDelimiter(v.GetString("csv_delimiter"))
	if err != nil {
		return nil, err
	}

	brokers := parseList(v.GetString("kafka_brokers"))
	snapshotEnabled := len(brokers) > 0
	if s := strings.TrimSpace(v.GetString("snapshot_enabled")); s != "" {
		snapshotEnabled, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid SNAPSHOT_ENABLED %q: must be a boolean", s)
		}
	}

	cfg := &Config{
		ClimateDataPath:    v.GetString("climate_data_path"),
		ForestDataPath:     v.GetString("forest_data_path"),
		CSVDelimiter:       delimiter,
		HTTPAddr:           v.GetString("http_addr"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		ShutdownTimeout:    shutdownTimeout,
		CountryCacheSize:   parseCacheSize(v.GetString("country_cache_size")),
		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: v.GetString("kafka_snapshot_topic"),
		SnapshotEnabled:    snapshotEnabled,
	}

	if cfg.ClimateDataPath == "" {
		return nil, errors.New("CLIMATE_DATA_PATH is required")
	}
	if cfg.ForestDataPath == "" {
		return nil, errors.New("FOREST_DATA_PATH is required")
	}
	if cfg.SnapshotEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("SNAPSHOT_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.SnapshotEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when snapshots are enabled")
	}

	return cfg, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid CSV_DELIMITER %q: must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCacheSize(s string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
		return n
	}
	return defaultCountryCacheSize
}
