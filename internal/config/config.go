package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "vocrecord.toml"

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the input and output locations.
type Paths struct {
	ImageDir      string `toml:"image_dir" validate:"required"`
	AnnotationDir string `toml:"annotation_dir" validate:"required"`
	OutputFile    string `toml:"output_file" validate:"required"`
	LabelMapFile  string `toml:"label_map_file"`
}

// Classes contains the class catalog.
type Classes struct {
	Names []string `toml:"names" validate:"min=1,unique,dive,required"`
}

// Image contains the optional image processing settings.
type Image struct {
	ResizeLonger     int    `toml:"resize_longer" validate:"gte=0"`
	DownsampleFilter string `toml:"downsample_filter" validate:"oneof=nearest box linear gaussian lanczos"`
	UpsampleFilter   string `toml:"upsample_filter" validate:"oneof=nearest box linear gaussian lanczos"`
	JPEGQuality      int    `toml:"jpeg_quality" validate:"gte=1,lte=100"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" validate:"gte=0"`
}

// Config encapsulates all configuration values for vocrecord.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Classes Classes `toml:"classes"`
	Image   Image   `toml:"image"`
	Logging Logging `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. An empty path selects FileName in the
// working directory, which may be absent; an explicit path must exist.
//
// Returns the config, the resolved file path and whether the file exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	info, err := os.Stat(FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileName, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return FileName, !info.IsDir(), nil
}

// expandPath replaces a leading "~" with the home directory and cleans the path. Relative paths
// stay relative to the working directory.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
