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

// Config holds runtime parameters for the service.
// Zero values mean "unspecified"; Resolve fills them from defaults.
type Config struct {
	Addr             string `json:"addr" yaml:"addr" toml:"addr" koanf:"addr"`
	ModelsDir        string `json:"models_dir" yaml:"models_dir" toml:"models_dir" koanf:"models_dir"`
	Workers          int    `json:"workers" yaml:"workers" toml:"workers" koanf:"workers"`
	MaxQueueDepth    int    `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" koanf:"max_queue_depth"`
	MaxWaitMS        int    `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms" koanf:"max_wait_ms"`
	LogLevel         string `json:"log_level" yaml:"log_level" toml:"log_level" koanf:"log_level"`
	SnapshotPath     string `json:"snapshot_path" yaml:"snapshot_path" toml:"snapshot_path" koanf:"snapshot_path"`
	SnapshotSchedule string `json:"snapshot_schedule" yaml:"snapshot_schedule" toml:"snapshot_schedule" koanf:"snapshot_schedule"`
	MQTTBroker       string `json:"mqtt_broker" yaml:"mqtt_broker" toml:"mqtt_broker" koanf:"mqtt_broker"`
	MQTTTopic        string `json:"mqtt_topic" yaml:"mqtt_topic" toml:"mqtt_topic" koanf:"mqtt_topic"`
	MQTTClientID     string `json:"mqtt_client_id" yaml:"mqtt_client_id" toml:"mqtt_client_id" koanf:"mqtt_client_id"`
	MaxBodyBytes     int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" koanf:"max_body_bytes"`
	CORSEnabled      bool   `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" koanf:"cors_enabled"`
	// CORSOrigins is a comma-separated list.
	CORSOrigins  string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" koanf:"cors_origins"`
	ChainingOp   string `json:"chaining_op" yaml:"chaining_op" toml:"chaining_op" koanf:"chaining_op"`
	LlamaCtx     int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx" koanf:"llama_ctx"`
	LlamaThreads int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads" koanf:"llama_threads"`

	// MaxTensorElements caps the element count of any tensor a request builds.
	MaxTensorElements int64 `json:"max_tensor_elements" yaml:"max_tensor_elements" toml:"max_tensor_elements" koanf:"max_tensor_elements"`
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
