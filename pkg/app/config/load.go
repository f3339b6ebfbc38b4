//go:build !tinygo

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.Debug != "" {
		c.Debug.FlagString = c.Flag.Debug
	}
	if c.Flag.Backend != "" {
		c.Probe.Backend = c.Flag.Backend
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.convert()
	return c.Validate()
}

// readConfigFile reads YAML, or TOML when the file name ends in .toml.
// A missing file leaves the defaults in place.
func (c *Config) readConfigFile() error {
	if c.Flag.ConfigFile == "" {
		return nil
	}

	if strings.EqualFold(filepath.Ext(c.Flag.ConfigFile), ".toml") {
		_, err := toml.DecodeFile(c.Flag.ConfigFile, c)
		if errors.Is(err, fs.ErrNotExist) {
			debug.InfoLog.Printf("config file %q not found, using defaults", c.Flag.ConfigFile)
			return nil
		}
		return err
	}

	file, err := os.Open(c.Flag.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		debug.InfoLog.Printf("config file %q not found, using defaults", c.Flag.ConfigFile)
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
