package suelo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
bounds:
  latMin: 18.5
  latMax: 20.0
  lonMin: -100.0
  lonMax: -98.5
http:
  port: 9090
mqtt:
  broker: tcp://broker.local:1883
  publishPrefix: geo
database:
  url: postgres://localhost/suelogrid
storeFile: stores.json
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 18.5, config.Bounds.LatMin, 1e-9)
	assert.InDelta(t, -98.5, config.Bounds.LonMax, 1e-9)
	assert.Equal(t, 9090, config.HTTP.Port)
	assert.Equal(t, "tcp://broker.local:1883", config.MQTT.Broker)
	assert.Equal(t, "geo", config.MQTT.PublishPrefix)
	assert.Equal(t, "postgres://localhost/suelogrid", config.Database.URL)
	assert.Equal(t, "stores.json", config.StoreFile)
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeConfigFile(t, `storeFile: stores.json`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBounds(), config.Bounds)
	assert.Equal(t, 8080, config.HTTP.Port)
	assert.Equal(t, "suelogrid", config.MQTT.PublishPrefix)
	assert.Equal(t, "suelogrid", config.MQTT.ClientID)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "not found")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "{{not yaml")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidBounds(t *testing.T) {
	path := writeConfigFile(t, `
bounds:
  latMin: 30.0
  latMax: 20.0
  lonMin: -100.0
  lonMax: -98.0
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "bounds")
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	path := writeConfigFile(t, `
http:
  port: 99999
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "port")
}

// ---------------------------------------------------------------------------
// Env overrides
// ---------------------------------------------------------------------------

func TestApplyDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://env-broker:1883")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	config := &Config{}
	ApplyDefaults(config)

	assert.Equal(t, "tcp://env-broker:1883", config.MQTT.Broker)
	assert.Equal(t, "postgres://env/db", config.Database.URL)
}

// ---------------------------------------------------------------------------
// SaveConfig round trip
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	original := DefaultConfig()
	original.HTTP.Port = 9999
	original.StoreFile = "network.json"
	require.NoError(t, SaveConfig(path, original))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.HTTP.Port)
	assert.Equal(t, "network.json", loaded.StoreFile)
	assert.Equal(t, original.Bounds, loaded.Bounds)
}
