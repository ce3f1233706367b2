package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/dtxorg/internal/constant"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	LibraryDir   string       `json:"library_dir"`
	IndexFile    string       `json:"index_file"`
	CategoryFile string       `json:"category_file"`
	JournalDB    string       `json:"journal_db"`
	Log          LogConfig    `json:"log"`
	Bucket       BucketConfig `json:"bucket"`
}

type LogConfig struct {
	File    string `json:"file"`
	Level   string `json:"level"`
	Console bool   `json:"console"`
}

// BucketConfig controls how packages are grouped into bucket folders.
type BucketConfig struct {
	NameFormat       string `json:"name_format"`
	CategoryTemplate string `json:"category_template"`
	FolderImage      string `json:"folder_image"`
	OtherKey         string `json:"other_key"`
}

var defaultConfig = New()

// New returns the built-in configuration.
func New() *Config {
	return &Config{
		IndexFile:    constant.DefaultIndexFile,
		CategoryFile: constant.DefaultCategoryFile,
		JournalDB:    "./dtxorg.db",
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Bucket: BucketConfig{
			NameFormat: "[%s] Anime Songs",
			OtherKey:   "Other",
		},
	}
}

// SetDefault assigns the configuration shared by every command.
func SetDefault(c *Config) {
	defaultConfig = c
}

// Default returns the shared configuration.
func Default() *Config {
	return defaultConfig
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path. Fields absent from
// the file keep their built-in values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.IndexFile) == "" {
		return errors.New("config.index_file must be set")
	}
	if strings.TrimSpace(c.CategoryFile) == "" {
		return errors.New("config.category_file must be set")
	}
	if strings.Count(c.Bucket.NameFormat, "%") != 1 || !strings.Contains(c.Bucket.NameFormat, "%s") {
		return errors.New("config.bucket.name_format must contain exactly one %s")
	}
	return nil
}
