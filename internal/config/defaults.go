package config

const (
	defaultHost                  = "0.0.0.0"
	defaultPort                  = "8080"
	defaultReadHeaderTimeout     = 10
	defaultTLSMinVersion         = "1.2"
	defaultDatabasePath          = "./data/presenter.db"
	defaultDataDir               = "./data"
	defaultLogLevel              = "info"
	defaultLogMaxSizeMB          = 20
	defaultLogMaxBackups         = 5
	defaultLogMaxAgeDays         = 30
	defaultMaxMessageBytes       = 1 << 20
	defaultWriteWait             = 10
	defaultPongWait              = 60
	defaultSendBuffer            = 256
	defaultDebounceMS            = 150
	defaultMultiColorMinDistinct = 2
	defaultThresholdPx           = 3.0
	defaultGridSize              = 8
	defaultCanvasWidth           = 1024
	defaultCanvasHeight          = 768
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Host:              defaultHost,
			Port:              defaultPort,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		},
		TLS: TLS{
			MinVersion: defaultTLSMinVersion,
		},
		Database: Database{Path: defaultDatabasePath},
		Data:     Data{Dir: defaultDataDir},
		Logging: Logging{
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Sync: Sync{
			MaxMessageBytes: defaultMaxMessageBytes,
			WriteWait:       defaultWriteWait,
			PongWait:        defaultPongWait,
			SendBuffer:      defaultSendBuffer,
		},
		Styles: Styles{
			DebounceMS:            defaultDebounceMS,
			MultiColorMinDistinct: defaultMultiColorMinDistinct,
		},
		Drag: Drag{
			ThresholdPx: defaultThresholdPx,
			GridSize:    defaultGridSize,
		},
		Canvas: Canvas{
			BaseWidth:  defaultCanvasWidth,
			BaseHeight: defaultCanvasHeight,
		},
	}
}
