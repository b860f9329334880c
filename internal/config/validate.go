package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTLS(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateStyles(); err != nil {
		return err
	}
	if c.Drag.GridSize < 0 {
		return errors.New("drag.grid_size must not be negative")
	}
	if c.Drag.Snap && c.Drag.GridSize < 2 {
		return errors.New("drag.grid_size must be at least 2 when drag.snap is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be a number between 1 and 65535, got %q", c.Server.Port)
	}
	return nil
}

func (c *Config) validateTLS() error {
	switch c.TLS.MinVersion {
	case "1.0", "1.1", "1.2", "1.3":
	default:
		return fmt.Errorf("tls.min_version must be one of 1.0, 1.1, 1.2, 1.3, got %q", c.TLS.MinVersion)
	}
	if !c.TLS.Enabled {
		return nil
	}
	if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
		return errors.New("tls.cert_file and tls.key_file are required when tls.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStyles() error {
	if c.Styles.MultiColorMinDistinct < 0 {
		return errors.New("styles.multi_color_min_distinct must not be negative")
	}
	return nil
}
