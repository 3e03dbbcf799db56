package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/photocore/pkg/log"
)

// Config is photocore-admin's startup configuration.
type Config struct {
	// DataDir holds the bbolt data file (photocore.db) and the deletion
	// journal it's journaled into.
	DataDir string `yaml:"data_dir"`
	// ImageDir is the base directory pkg/upload manages: it creates
	// upload/, medium/, small/ and temp/ beneath it.
	ImageDir string `yaml:"image_dir"`

	LogLevel    log.Level `yaml:"log_level"`
	LogJSON     bool      `yaml:"log_json"`
	MetricsAddr string    `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:     "./photocore-data",
		ImageDir:    "./photocore-data/images",
		LogLevel:    log.InfoLevel,
		LogJSON:     false,
		MetricsAddr: "127.0.0.1:9090",
	}
}

// Load reads a YAML file at path over Default()'s values, so a config
// file only needs to set the fields it wants to override.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
