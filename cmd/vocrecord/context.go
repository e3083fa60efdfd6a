package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorable/vocrecord"
	"github.com/sensorable/vocrecord/internal/config"
	"github.com/sensorable/vocrecord/internal/logging"
)

// commandContext lazily loads the configuration shared by all commands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
	cfgPath    string
	cfgExists  bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, exists, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg, c.cfgPath, c.cfgExists = cfg, path, exists
	return cfg, nil
}

func (c *commandContext) logger() (*logrus.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func (c *commandContext) catalog() (*vocrecord.ClassCatalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := vocrecord.NewClassCatalog(cfg.Classes.Names)
	if err != nil {
		return nil, fmt.Errorf("classes.names: %w", err)
	}
	return catalog, nil
}
