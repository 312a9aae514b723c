package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ProjectConfig is the optional pgstage.yaml file. Zero values mean "not set".
type ProjectConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
	Table       string `yaml:"table,omitempty"`
	ChunkSize   int    `yaml:"chunksize,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
	Delimiter   string `yaml:"delimiter,omitempty"`
	Encoding    string `yaml:"encoding,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
}

const ConfigFileName = "pgstage.yaml"

// Load reads the config file at path. A directory path resolves to
// <dir>/pgstage.yaml.
func Load(path string) (*ProjectConfig, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
