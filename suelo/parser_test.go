package suelo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeExportJSON = `{
  "stores": [
    {
      "id": 1,
      "nombre": "Sucursal Centro",
      "ciudad": "CDMX",
      "año": 2021,
      "latitud": 19.4326,
      "longitud": -99.1332,
      "tipo_suelo": "arcilla",
      "clasificacion_sucs": "CH",
      "qadm": 18.5,
      "profundidad_desplante": 1.8,
      "presencia_naf": true,
      "profundidad_naf": 3.2,
      "tipo_cimentacion": "losa",
      "mejoramiento_requerido": false
    },
    {
      "id": 2,
      "nombre": "Sucursal Sin Coordenadas",
      "ciudad": "CDMX",
      "latitud": null,
      "longitud": null
    },
    {
      "id": 3,
      "nombre": "Sucursal Norte",
      "ciudad": "Monterrey",
      "año": 2023,
      "latitud": 25.6866,
      "longitud": -100.3161
    }
  ]
}`

// ---------------------------------------------------------------------------
// ParseStoresJSON
// ---------------------------------------------------------------------------

func TestParseStoresJSON_Envelope(t *testing.T) {
	samples, err := ParseStoresJSON([]byte(storeExportJSON))
	require.NoError(t, err)

	// The row without coordinates is dropped.
	require.Len(t, samples, 2)

	first := samples[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Sucursal Centro", first.Name)
	assert.Equal(t, "CDMX", first.City)
	assert.Equal(t, 2021, first.Year)
	assert.InDelta(t, 19.4326, first.Lat, 1e-9)
	assert.InDelta(t, -99.1332, first.Lon, 1e-9)

	require.NotNil(t, first.SoilType)
	assert.Equal(t, "arcilla", *first.SoilType)
	require.NotNil(t, first.Qadm)
	assert.InDelta(t, 18.5, *first.Qadm, 1e-9)
	require.NotNil(t, first.HasGroundwater)
	assert.True(t, *first.HasGroundwater)
	require.NotNil(t, first.NeedsImprovement)
	assert.False(t, *first.NeedsImprovement)

	// Sparse rows keep their attribute pointers nil.
	second := samples[1]
	assert.Equal(t, "Sucursal Norte", second.Name)
	assert.Nil(t, second.SoilType)
	assert.Nil(t, second.Qadm)
}

func TestParseStoresJSON_BareArray(t *testing.T) {
	data := `[{"id": 7, "nombre": "X", "latitud": 19.0, "longitud": -99.0}]`
	samples, err := ParseStoresJSON([]byte(data))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(7), samples[0].ID)
}

func TestParseStoresJSON_OutOfRangeCoordinates(t *testing.T) {
	data := `[{"id": 1, "nombre": "bad", "latitud": 255.0, "longitud": -99.0}]`
	samples, err := ParseStoresJSON([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestParseStoresJSON_Invalid(t *testing.T) {
	_, err := ParseStoresJSON([]byte("not json"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// ParseStoresFile
// ---------------------------------------------------------------------------

func TestParseStoresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	require.NoError(t, os.WriteFile(path, []byte(storeExportJSON), 0644))

	samples, err := ParseStoresFile(path)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestParseStoresFile_Missing(t *testing.T) {
	_, err := ParseStoresFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// FilterWithinBounds
// ---------------------------------------------------------------------------

func TestFilterWithinBounds(t *testing.T) {
	samples := []SamplePoint{
		{ID: 1, Lat: 19.4, Lon: -99.1},  // inside Mexico
		{ID: 2, Lat: 40.7, Lon: -74.0},  // New York
		{ID: 3, Lat: 25.7, Lon: -100.3}, // inside Mexico
	}
	kept := FilterWithinBounds(samples, DefaultBounds())
	require.Len(t, kept, 2)
	assert.Equal(t, int64(1), kept[0].ID)
	assert.Equal(t, int64(3), kept[1].ID)
}
