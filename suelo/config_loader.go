package suelo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the service configuration from a YAML file and applies
// defaults for anything left unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	ApplyDefaults(&config)

	if !config.Bounds.IsValid() {
		return nil, fmt.Errorf("bounds are invalid: lat [%g, %g], lon [%g, %g]",
			config.Bounds.LatMin, config.Bounds.LatMax, config.Bounds.LonMin, config.Bounds.LonMax)
	}
	if config.HTTP.Port <= 0 || config.HTTP.Port > 65535 {
		return nil, fmt.Errorf("http.port %d out of range", config.HTTP.Port)
	}

	return &config, nil
}

// SaveConfig writes the configuration back out as YAML.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills the zero-valued parts of a config: the Mexican
// bounding box, port 8080, the "suelogrid" MQTT identity, and env overrides
// for the secrets that should not live in the file.
func ApplyDefaults(config *Config) {
	if config.Bounds == (BoundingBox{}) {
		config.Bounds = DefaultBounds()
	}
	if config.HTTP.Port == 0 {
		config.HTTP.Port = 8080
	}
	if config.MQTT.PublishPrefix == "" {
		config.MQTT.PublishPrefix = "suelogrid"
	}
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "suelogrid"
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		config.MQTT.Broker = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Database.URL = v
	}
}

// DefaultConfig returns a config with every default applied, used when no
// config file is present.
func DefaultConfig() *Config {
	config := &Config{}
	ApplyDefaults(config)
	return config
}
