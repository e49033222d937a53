// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the bot daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - BOUSHITSU_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Environment
// variables do not override file values; the file is the single
// source of truth.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the bot daemon.
type Config struct {
	// ScreenName is the bot's own Twitter screen name, without the
	// leading "@". Used to recognize mentions addressed to the bot
	// and to skip the bot's own events.
	ScreenName string `yaml:"screen_name"`

	// AuthorizedPersonnel lists the screen names allowed to run
	// privileged commands. A leading "@" on an entry is accepted and
	// stripped.
	AuthorizedPersonnel []string `yaml:"authorized_personnel"`

	// Twitter holds the OAuth 1.0a credentials for the bot account.
	Twitter TwitterConfig `yaml:"twitter"`

	// Beebotte configures the MQTT event source.
	Beebotte BeebotteConfig `yaml:"beebotte"`

	// Database configures persistent state.
	Database DatabaseConfig `yaml:"database"`

	// Sensor configures the room light sensor.
	Sensor SensorConfig `yaml:"sensor"`

	// Socket configures the local control socket.
	Socket SocketConfig `yaml:"socket"`

	// Update configures the self-update command.
	Update UpdateConfig `yaml:"update"`

	// Status configures the checkServiceStatus command.
	Status StatusConfig `yaml:"status"`
}

// TwitterConfig holds the four OAuth 1.0a credentials.
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	AccessToken    string `yaml:"access_token"`
	AccessSecret   string `yaml:"access_secret"`
}

// BeebotteConfig configures the MQTT connection to Beebotte.
type BeebotteConfig struct {
	// Host is the broker hostname. Default: mqtt.beebotte.com
	Host string `yaml:"host"`

	// Port is the TLS port. Default: 8883
	Port int `yaml:"port"`

	// CACert is the path to the broker's CA certificate bundle.
	CACert string `yaml:"ca_cert"`

	// Token is the Beebotte channel token.
	Token string `yaml:"token"`

	// Topic is the channel/resource topic to subscribe to,
	// e.g. "boushitsu/twitter".
	Topic string `yaml:"topic"`
}

// DatabaseConfig configures persistent state.
type DatabaseConfig struct {
	// Path is the SQLite database file holding the presence ledger
	// and member directory.
	Path string `yaml:"path"`
}

// SensorConfig configures the room light sensor.
type SensorConfig struct {
	// Chip is the GPIO character device name. Default: gpiochip0
	Chip string `yaml:"chip"`

	// DriveLine powers the sensor circuit during a reading.
	DriveLine int `yaml:"drive_line"`

	// SenseLine reads the photoresistor output.
	SenseLine int `yaml:"sense_line"`
}

// SocketConfig configures the local control socket.
type SocketConfig struct {
	// Path is the Unix socket path the daemon serves on.
	// Default: /run/boushitsu/control.sock
	Path string `yaml:"path"`

	// WatchdogPath is where exec-transition state is recorded.
	// Default: alongside the socket as watchdog.json.
	WatchdogPath string `yaml:"watchdog_path"`
}

// UpdateConfig configures the self-update command.
type UpdateConfig struct {
	// Command is the argv run by the update command before the
	// daemon re-execs itself, e.g. ["git", "-C", "/opt/boushitsu", "pull"].
	// Empty disables updates; the update command reports failure.
	Command []string `yaml:"command"`
}

// StatusConfig configures the checkServiceStatus command.
type StatusConfig struct {
	// Units are the systemd unit names reported by
	// checkServiceStatus. Default: boushitsud.service.
	Units []string `yaml:"units"`
}

// Default returns the default configuration. These defaults are the
// base before loading the config file; credentials and the database
// path must come from the file.
func Default() *Config {
	return &Config{
		Beebotte: BeebotteConfig{
			Host: "mqtt.beebotte.com",
			Port: 8883,
		},
		Sensor: SensorConfig{
			Chip: "gpiochip0",
		},
		Socket: SocketConfig{
			Path:         "/run/boushitsu/control.sock",
			WatchdogPath: "/run/boushitsu/watchdog.json",
		},
		Status: StatusConfig{
			Units: []string{"boushitsud.service"},
		},
	}
}

// Load loads configuration from the BOUSHITSU_CONFIG environment
// variable. Fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("BOUSHITSU_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("BOUSHITSU_CONFIG environment variable not set; " +
			"set it to the path of your boushitsu.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file over Default and validating the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	// Default the watchdog path next to an overridden socket path.
	if cfg.Socket.WatchdogPath == "" {
		cfg.Socket.WatchdogPath = filepath.Join(filepath.Dir(cfg.Socket.Path), "watchdog.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.ScreenName == "" {
		errs = append(errs, fmt.Errorf("screen_name is required"))
	}

	if c.Twitter.ConsumerKey == "" || c.Twitter.ConsumerSecret == "" ||
		c.Twitter.AccessToken == "" || c.Twitter.AccessSecret == "" {
		errs = append(errs, fmt.Errorf("all four twitter credentials are required"))
	}

	if c.Beebotte.Host == "" {
		errs = append(errs, fmt.Errorf("beebotte.host is required"))
	}
	if c.Beebotte.Port <= 0 || c.Beebotte.Port > 65535 {
		errs = append(errs, fmt.Errorf("beebotte.port must be in 1-65535, got %d", c.Beebotte.Port))
	}
	if c.Beebotte.Token == "" {
		errs = append(errs, fmt.Errorf("beebotte.token is required"))
	}
	if c.Beebotte.Topic == "" {
		errs = append(errs, fmt.Errorf("beebotte.topic is required"))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}

	if c.Sensor.Chip == "" {
		errs = append(errs, fmt.Errorf("sensor.chip is required"))
	}
	if c.Sensor.DriveLine == c.Sensor.SenseLine {
		errs = append(errs, fmt.Errorf("sensor.drive_line and sensor.sense_line must differ"))
	}

	if c.Socket.Path == "" {
		errs = append(errs, fmt.Errorf("socket.path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
