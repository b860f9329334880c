package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRESENTER_"

// Server holds the listen address.
type Server struct {
	Host string `toml:"host" env:"HOST"`
	Port string `toml:"port" env:"PORT"`
	// ReadHeaderTimeout is in seconds.
	ReadHeaderTimeout int `toml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
}

// TLS enables HTTPS.
type TLS struct {
	Enabled    bool   `toml:"enabled" env:"ENABLED"`
	CertFile   string `toml:"cert_file" env:"CERT_FILE"`
	KeyFile    string `toml:"key_file" env:"KEY_FILE"`
	MinVersion string `toml:"min_version" env:"MIN_VERSION"`
}

// Database locates the sqlite file holding scene templates and looks.
type Database struct {
	Path string `toml:"path" env:"PATH"`
}

// Data is where JSON state files live.
type Data struct {
	Dir string `toml:"dir" env:"DIR"`
}

// Logging configures log output. An empty Format picks console output on a
// terminal and JSON otherwise. File, when set, adds a rotating log file.
type Logging struct {
	Level      string `toml:"level" env:"LEVEL"`
	Format     string `toml:"format" env:"FORMAT"`
	File       string `toml:"file" env:"FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `toml:"max_age_days" env:"MAX_AGE_DAYS"`
}

// Sync tunes the websocket relay. Waits are in seconds.
type Sync struct {
	MaxMessageBytes int64 `toml:"max_message_bytes" env:"MAX_MESSAGE_BYTES"`
	WriteWait       int   `toml:"write_wait" env:"WRITE_WAIT"`
	PongWait        int   `toml:"pong_wait" env:"PONG_WAIT"`
	SendBuffer      int   `toml:"send_buffer" env:"SEND_BUFFER"`
}

// WriteWaitDuration returns WriteWait as a duration.
func (s Sync) WriteWaitDuration() time.Duration { return time.Duration(s.WriteWait) * time.Second }

// PongWaitDuration returns PongWait as a duration.
func (s Sync) PongWaitDuration() time.Duration { return time.Duration(s.PongWait) * time.Second }

// Styles tunes live style editing. A slide whose text uses at least
// MultiColorMinDistinct colours holds font changes until confirmed.
type Styles struct {
	DebounceMS            int `toml:"debounce_ms" env:"DEBOUNCE_MS"`
	MultiColorMinDistinct int `toml:"multi_color_min_distinct" env:"MULTI_COLOR_MIN_DISTINCT"`
}

// Debounce returns DebounceMS as a duration.
func (s Styles) Debounce() time.Duration { return time.Duration(s.DebounceMS) * time.Millisecond }

// Drag configures overlay dragging.
type Drag struct {
	Disabled    bool    `toml:"disabled" env:"DISABLED"`
	ThresholdPx float64 `toml:"threshold_px" env:"THRESHOLD_PX"`
	GridSize    int     `toml:"grid_size" env:"GRID_SIZE"`
	Snap        bool    `toml:"snap" env:"SNAP"`
}

// Canvas is the output's base coordinate system.
type Canvas struct {
	BaseWidth  int `toml:"base_width" env:"BASE_WIDTH"`
	BaseHeight int `toml:"base_height" env:"BASE_HEIGHT"`
}

// Config is the full server configuration.
type Config struct {
	Server   Server   `toml:"server" envPrefix:"SERVER_"`
	TLS      TLS      `toml:"tls" envPrefix:"TLS_"`
	Database Database `toml:"database" envPrefix:"DATABASE_"`
	Data     Data     `toml:"data" envPrefix:"DATA_"`
	Logging  Logging  `toml:"logging" envPrefix:"LOGGING_"`
	Sync     Sync     `toml:"sync" envPrefix:"SYNC_"`
	Styles   Styles   `toml:"styles" envPrefix:"STYLES_"`
	Drag     Drag     `toml:"drag" envPrefix:"DRAG_"`
	Canvas   Canvas   `toml:"canvas" envPrefix:"CANVAS_"`
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// Load reads path (optional; a missing file is not an error when path is
// empty), applies environment overrides, then normalizes and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if legacy, ok := os.LookupEnv("DB_PATH"); ok && legacy != "" {
		c.Database.Path = legacy
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// CreateSample writes the annotated sample configuration to path. It refuses
// to overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
