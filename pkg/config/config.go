// Package config loads the settings of the process: where the save document
// and board files live, which storage backend holds the document, and logging.
//
// Values are layered: defaults, then the TOML config file, then TAKMA_*
// environment variables. Paths are expanded (~ and $VAR) and made absolute last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Storage backends for the save document.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

const (
	appDir = "Takma"
	// DefaultConfigFilename is looked up in <os.UserConfigDir>/Takma when no file is given.
	DefaultConfigFilename = "takma.toml"
	DefaultSaveFile       = "Takma.json"
	DefaultLogFile        = "takma.log"
	SQLiteFile            = "Takma.sqlite"
	DefaultFuzzyDistance  = 2
	DefaultThumbnailSize  = 256
	DefaultThumbnailJobs  = 2
)

// Config holds every setting of the process.
type Config struct {
	SaveDir          string `toml:"save_dir"`
	SaveFile         string `toml:"save_file"`
	Storage          string `toml:"storage"`
	TempDir          string `toml:"temp_dir"`
	LogFile          string `toml:"log_file"`
	LogLevel         string `toml:"log_level"`
	FuzzyDistance    int    `toml:"fuzzy_distance"`
	ThumbnailSize    int    `toml:"thumbnail_size"`
	ThumbnailWorkers int    `toml:"thumbnail_workers"`
}

// Load builds the configuration. path names the config file; when empty the
// default file is used if it exists.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = findUserConfigFile()
	} else if _, err := os.Stat(expandPath(path)); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if path != "" {
		if _, err := toml.DecodeFile(expandPath(path), cfg); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	saveDir := appDir

	if dir, err := os.UserConfigDir(); err == nil {
		saveDir = filepath.Join(dir, appDir)
	}

	return &Config{
		SaveDir:          saveDir,
		SaveFile:         DefaultSaveFile,
		Storage:          StorageJSON,
		TempDir:          os.TempDir(),
		LogLevel:         zerolog.InfoLevel.String(),
		FuzzyDistance:    DefaultFuzzyDistance,
		ThumbnailSize:    DefaultThumbnailSize,
		ThumbnailWorkers: DefaultThumbnailJobs,
	}
}

func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(dir, appDir, DefaultConfigFilename)
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	return path
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TAKMA_SAVE_DIR"); v != "" {
		cfg.SaveDir = v
	}

	if v := os.Getenv("TAKMA_STORAGE"); v != "" {
		cfg.Storage = v
	}

	if v := os.Getenv("TAKMA_TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}

	if v := os.Getenv("TAKMA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("TAKMA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("TAKMA_FUZZY_DISTANCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("error parsing TAKMA_FUZZY_DISTANCE: %w", err)
		}

		cfg.FuzzyDistance = n
	}

	return nil
}

func finalize(cfg *Config) error {
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if cfg.Storage != StorageJSON && cfg.Storage != StorageSQLite {
		return fmt.Errorf("error in config: unknown storage %q", cfg.Storage)
	}

	if _, err := cfg.Level(); err != nil {
		return err
	}

	if cfg.FuzzyDistance < 0 {
		return fmt.Errorf("error in config: fuzzy_distance must not be negative, got %d", cfg.FuzzyDistance)
	}

	if cfg.ThumbnailWorkers < 1 {
		cfg.ThumbnailWorkers = 1
	}

	if cfg.SaveFile == "" {
		cfg.SaveFile = DefaultSaveFile
	}

	var err error

	if cfg.SaveDir, err = absPath(cfg.SaveDir); err != nil {
		return err
	}

	if cfg.TempDir, err = absPath(cfg.TempDir); err != nil {
		return err
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.SaveDir, DefaultLogFile)
	}

	cfg.LogFile, err = absPath(cfg.LogFile)

	return err
}

// Level parses the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("error in config: bad log_level %q: %w", c.LogLevel, err)
	}

	return level, nil
}

// SavePath is the JSON save document.
func (c *Config) SavePath() string {
	return filepath.Join(c.SaveDir, c.SaveFile)
}

// SQLitePath is the database holding the save document when storage is sqlite.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.SaveDir, SQLiteFile)
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(expandPath(p))
	if err != nil {
		return "", fmt.Errorf("error resolving path %s: %w", p, err)
	}

	return abs, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)

	if expanded != "~" && !strings.HasPrefix(expanded, "~/") {
		return expanded
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return expanded
	}

	return filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
}
