package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// CLIConfig holds the mediactl client settings
type CLIConfig struct {
	ServerAddr string        `yaml:"serverAddr" json:"serverAddr"`
	ChunkSize  int           `yaml:"chunkSize" json:"chunkSize"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

var DefaultCLIConfig = CLIConfig{
	ServerAddr: "localhost:50060",
	ChunkSize:  256000,
	Timeout:    0,
}

// CLIConfigPath returns ~/.mediahub/cli.yaml.
func CLIConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mediahub", "cli.yaml"), nil
}

// LoadCLIConfig reads path (or the default location when empty), then
// applies MEDIA_SERVICE_ENDPOINT and MEDIAHUB_CLI_* overrides. A missing
// file is not an error.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	cfg := DefaultCLIConfig

	if path == "" {
		p, err := CLIConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", path, err)
		}
		path = expanded
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse cli config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read cli config %s: %w", path, err)
	}

	if val := os.Getenv("MEDIA_SERVICE_ENDPOINT"); val != "" {
		cfg.ServerAddr = val
	}
	if val := os.Getenv("MEDIAHUB_CLI_CHUNK_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("MEDIAHUB_CLI_CHUNK_SIZE: %w", err)
		}
		cfg.ChunkSize = n
	}
	if val := os.Getenv("MEDIAHUB_CLI_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("MEDIAHUB_CLI_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *CLIConfig) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address required")
	}
	if c.ChunkSize < minChunkSize || c.ChunkSize > maxChunkSize {
		return fmt.Errorf("invalid chunk size: %d (must be between %d and %d)", c.ChunkSize, minChunkSize, maxChunkSize)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	return nil
}
