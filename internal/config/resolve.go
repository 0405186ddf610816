package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides: TENSORD_MODELS_DIR sets
// models_dir.
const EnvPrefix = "TENSORD_"

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:          ":8080",
		ModelsDir:     "~/models/tensord",
		Workers:       4,
		MaxQueueDepth: 64,
		MaxWaitMS:     5000,
		LogLevel:      "info",
		MQTTTopic:     "tensord",
		MQTTClientID:  "tensord",
		MaxBodyBytes:  1 << 20,
		ChainingOp:    "|>",
		LlamaCtx:      2048,
		LlamaThreads:  4,

		MaxTensorElements: 1 << 24,
	}
}

// Resolve layers configuration with increasing precedence: defaults, the
// file at path (optional), TENSORD_* environment variables, then flags that
// were explicitly set. Flag names are kebab-case forms of the keys.
func Resolve(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults().toMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		fileCfg, err := Load(path)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(confmap.Provider(fileCfg.toMap(), "."), nil); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Workers < 0 || c.MaxQueueDepth < 0 || c.MaxWaitMS < 0 {
		return fmt.Errorf("workers, max_queue_depth and max_wait_ms must not be negative")
	}
	if c.MaxTensorElements < 0 {
		return fmt.Errorf("max_tensor_elements must not be negative")
	}
	if strings.TrimSpace(c.ChainingOp) == "" {
		return fmt.Errorf("chaining_op is required")
	}
	if c.SnapshotSchedule != "" && c.SnapshotPath == "" {
		return fmt.Errorf("snapshot_schedule requires snapshot_path")
	}
	return nil
}

// toMap returns the non-zero fields keyed by their config names so a file
// only overrides what it sets.
func (c Config) toMap() map[string]interface{} {
	m := map[string]interface{}{}
	str := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	num := func(k string, v int64) {
		if v != 0 {
			m[k] = v
		}
	}
	str("addr", c.Addr)
	str("models_dir", c.ModelsDir)
	num("workers", int64(c.Workers))
	num("max_queue_depth", int64(c.MaxQueueDepth))
	num("max_wait_ms", int64(c.MaxWaitMS))
	str("log_level", c.LogLevel)
	str("snapshot_path", c.SnapshotPath)
	str("snapshot_schedule", c.SnapshotSchedule)
	str("mqtt_broker", c.MQTTBroker)
	str("mqtt_topic", c.MQTTTopic)
	str("mqtt_client_id", c.MQTTClientID)
	num("max_body_bytes", c.MaxBodyBytes)
	num("max_tensor_elements", c.MaxTensorElements)
	if c.CORSEnabled {
		m["cors_enabled"] = true
	}
	str("cors_origins", c.CORSOrigins)
	str("chaining_op", c.ChainingOp)
	num("llama_ctx", int64(c.LlamaCtx))
	num("llama_threads", int64(c.LlamaThreads))
	return m
}
