package common

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/xxxsen/dtxorg/internal/config"
	"github.com/xxxsen/dtxorg/internal/constant"
)

const (
	// ConfigFlag is the CLI flag name used to specify an explicit config path.
	ConfigFlag = "config"

	systemConfigPath = "/etc/" + constant.DefaultConfigFile
)

// LoadConfig resolves the configuration file respecting precedence rules. An
// explicit path must exist; otherwise a missing file falls back to the
// built-in configuration.
func LoadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}

	searchPaths := make([]string, 0, 2)
	if wd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(wd, constant.DefaultConfigFile))
	}
	searchPaths = append(searchPaths, systemConfigPath)

	cfg, err := config.LoadFirst(searchPaths...)
	if errors.Is(err, os.ErrNotExist) {
		return config.New(), nil
	}
	return cfg, err
}
