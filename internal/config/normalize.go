package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if strings.TrimSpace(c.TLS.MinVersion) == "" {
		c.TLS.MinVersion = defaultTLSMinVersion
	}

	if err := normalizePath(&c.Database.Path, defaultDatabasePath); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	if err := normalizePath(&c.Data.Dir, defaultDataDir); err != nil {
		return fmt.Errorf("data.dir: %w", err)
	}
	if c.Logging.File != "" {
		c.Logging.File = filepath.Clean(strings.TrimSpace(c.Logging.File))
	}

	c.normalizeLogging()

	if c.Sync.MaxMessageBytes <= 0 {
		c.Sync.MaxMessageBytes = defaultMaxMessageBytes
	}
	if c.Sync.WriteWait <= 0 {
		c.Sync.WriteWait = defaultWriteWait
	}
	if c.Sync.PongWait <= 0 {
		c.Sync.PongWait = defaultPongWait
	}
	if c.Sync.SendBuffer <= 0 {
		c.Sync.SendBuffer = defaultSendBuffer
	}
	if c.Styles.DebounceMS <= 0 {
		c.Styles.DebounceMS = defaultDebounceMS
	}
	if c.Drag.ThresholdPx <= 0 {
		c.Drag.ThresholdPx = defaultThresholdPx
	}
	if c.Canvas.BaseWidth <= 0 {
		c.Canvas.BaseWidth = defaultCanvasWidth
	}
	if c.Canvas.BaseHeight <= 0 {
		c.Canvas.BaseHeight = defaultCanvasHeight
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "text" {
		c.Logging.Format = "console"
	}
}

func normalizePath(p *string, fallback string) error {
	v := strings.TrimSpace(*p)
	if v == "" {
		v = fallback
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return err
	}
	*p = abs
	return nil
}
