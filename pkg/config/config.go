package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Dataset DatasetConfig `yaml:"dataset"`
	Log     LogConfig     `yaml:"log"`
	Ingest  IngestConfig  `yaml:"ingest"`
	OCR     OCRConfig     `yaml:"ocr"`
}

// StoreConfig locates the SQLite database file.
type StoreConfig struct {
	Path string `yaml:"path" env:"KANJIDEX_DB" env-default:"kanjidex.db"`
}

// DatasetConfig controls where the reference dataset comes from.
// Path points at a local dataset file; when empty the embedded seed
// is used. CacheDir is where downloaded datasets are kept.
type DatasetConfig struct {
	Path     string `yaml:"path" env:"KANJIDEX_DATASET" env-default:""`
	CacheDir string `yaml:"cache_dir" env:"KANJIDEX_CACHE_DIR" env-default:".kanjidex"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" env:"KANJIDEX_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"KANJIDEX_LOG_FORMAT" env-default:"console"`
}

// IngestConfig tunes the bulk import pipeline.
type IngestConfig struct {
	Workers       int           `yaml:"workers" env:"KANJIDEX_INGEST_WORKERS" env-default:"4"`
	BatchSize     int           `yaml:"batch_size" env:"KANJIDEX_INGEST_BATCH" env-default:"50"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"KANJIDEX_INGEST_FLUSH" env-default:"2s"`
}

// OCRConfig configures the Google Vision client.
type OCRConfig struct {
	CredentialsFile string   `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
	LanguageHints   []string `yaml:"language_hints" env:"KANJIDEX_OCR_LANGS" env-default:"ja"`
}

// Validate checks settings a typo would most likely break.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path must not be empty")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1, got %d", c.Ingest.Workers)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest batch size must be at least 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.FlushInterval <= 0 {
		return fmt.Errorf("ingest flush interval must be positive, got %s", c.Ingest.FlushInterval)
	}
	return nil
}
