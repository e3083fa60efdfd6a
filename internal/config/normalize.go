package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	for i, name := range c.Classes.Names {
		c.Classes.Names[i] = strings.TrimSpace(name)
	}
	c.Image.DownsampleFilter = strings.ToLower(strings.TrimSpace(c.Image.DownsampleFilter))
	c.Image.UpsampleFilter = strings.ToLower(strings.TrimSpace(c.Image.UpsampleFilter))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	return nil
}

func (c *Config) normalizePaths() error {
	paths := []struct {
		key   string
		value *string
	}{
		{"paths.image_dir", &c.Paths.ImageDir},
		{"paths.annotation_dir", &c.Paths.AnnotationDir},
		{"paths.output_file", &c.Paths.OutputFile},
		{"paths.label_map_file", &c.Paths.LabelMapFile},
		{"logging.file", &c.Logging.File},
	}
	for _, p := range paths {
		expanded, err := expandPath(strings.TrimSpace(*p.value))
		if err != nil {
			return fmt.Errorf("%s: %w", p.key, err)
		}
		*p.value = expanded
	}
	return nil
}
