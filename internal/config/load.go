// internal/config/load.go
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix scopes environment overrides, e.g. UPSR_MQTT_BROKER.
const EnvPrefix = "UPSR"

// Load reads and parses a YAML configuration file.
// It does not validate or normalize.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyEnvOverrides updates cfg in place from UPSR_* environment variables.
// Recognized: LOG_LEVEL, LOG_FORMAT, HTTP_LISTEN, MQTT_BROKER,
// MQTT_USERNAME, MQTT_PASSWORD.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	override := func(key string, dst *string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}

	r := &cfg.Replicator
	override("LOG_LEVEL", &r.LogLevel)
	override("LOG_FORMAT", &r.LogFormat)
	override("HTTP_LISTEN", &r.HTTP.Listen)
	override("MQTT_BROKER", &r.MQTT.Broker)
	override("MQTT_USERNAME", &r.MQTT.Username)
	override("MQTT_PASSWORD", &r.MQTT.Password)
}
