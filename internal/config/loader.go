package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the gateway.
// Zero values mean "unspecified" and are replaced by defaults in main.
type Config struct {
	Addr               string  `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir          string  `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	CtxSize            int     `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads            int     `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers          int     `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Temperature        float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens          int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	GenerateTimeoutSec int     `json:"generate_timeout_sec" yaml:"generate_timeout_sec" toml:"generate_timeout_sec"`
	MaxBodyBytes       int64   `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
