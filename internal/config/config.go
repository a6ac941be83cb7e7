package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings. DSN may stay empty
// for dry runs; commands that persist fail fast without it.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// EngineConfig tunes the song processing engine.
type EngineConfig struct {
	RunOnThreshold     int     `yaml:"run_on_threshold"   env:"ENGINE_RUN_ON_THRESHOLD"   env-default:"50"`
	HawaiianMarkersRaw string  `yaml:"hawaiian_markers"   env:"ENGINE_HAWAIIAN_MARKERS"`
	ReviewThreshold    float64 `yaml:"review_threshold"   env:"ENGINE_REVIEW_THRESHOLD"   env-default:"70"`
	LowConfidenceCap   float64 `yaml:"low_confidence_cap" env:"ENGINE_LOW_CONFIDENCE_CAP" env-default:"10"`

	// HawaiianMarkers is parsed from HawaiianMarkersRaw during validation.
	// Empty selects the engine's built-in marker set.
	HawaiianMarkers []string `yaml:"-" env:"-"`
}

// ImportConfig holds batch importer settings.
type ImportConfig struct {
	SourceDir  string `yaml:"source_dir"  env:"IMPORT_SOURCE_DIR"  env-default:"./sources"`
	Pattern    string `yaml:"pattern"     env:"IMPORT_PATTERN"     env-default:"*.html"`
	Workers    int    `yaml:"workers"     env:"IMPORT_WORKERS"     env-default:"4"`
	ReportPath string `yaml:"report_path" env:"IMPORT_REPORT_PATH" env-default:"import_report.yaml"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
