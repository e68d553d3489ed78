// Package config loads the user's defaults file, creating it from the
// embedded template on first run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed access1581.toml
var defaultConfigData []byte

// Global state variables holding the resolved defaults
var (
	DiskType     string
	Retries      int
	SerialDevice string
)

// Config represents the TOML configuration structure
type Config struct {
	DiskType     string       `toml:"disktype"`
	Retries      int          `toml:"retries"`
	SerialDevice SerialDeviceConfig `toml:"serialdevice"`
}

// SerialDeviceConfig holds the per-OS default controller device paths
type SerialDeviceConfig struct {
	Linux   string `toml:"linux"`
	Windows string `toml:"windows"`
	Darwin  string `toml:"darwin"`
}

// configPath determines the config file path based on the operating system
func configPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "access1581")
	default:
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".access1581"), nil
}

// Initialize loads and validates the configuration file.
// If the config file doesn't exist, it creates it from the embedded default.
func Initialize() error {
	configPath, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}
		if err := os.WriteFile(configPath, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("failed to create default config file at %s: %w", configPath, err)
		}
	}

	var conf Config
	if _, err := toml.DecodeFile(configPath, &conf); err != nil {
		return fmt.Errorf("failed to parse TOML config at %s: %w", configPath, err)
	}

	if conf.DiskType == "" {
		return fmt.Errorf("`disktype` key is missing or empty in config at %s", configPath)
	}
	if conf.Retries <= 0 {
		return fmt.Errorf("config at %s has invalid retries: %d (must be positive)", configPath, conf.Retries)
	}

	DiskType = conf.DiskType
	Retries = conf.Retries

	switch runtime.GOOS {
	case "windows":
		SerialDevice = conf.SerialDevice.Windows
	case "darwin":
		SerialDevice = conf.SerialDevice.Darwin
	default:
		SerialDevice = conf.SerialDevice.Linux
	}
	if SerialDevice == "" {
		return fmt.Errorf("config at %s has no serial device for %s", configPath, runtime.GOOS)
	}

	return nil
}
