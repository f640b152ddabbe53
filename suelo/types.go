package suelo

import (
	"time"

	"github.com/paulmach/orb"
)

// SamplePoint is a surveyed store site with its geotechnical report data.
// Field names in JSON follow the dashboard API contract (Spanish, matching
// the survey spreadsheets). All geotechnical attributes are optional: a nil
// pointer means the report did not include that measurement.
type SamplePoint struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
	City string `json:"ciudad,omitempty"`
	Year int    `json:"año,omitempty"`

	Lat float64 `json:"latitud"`
	Lon float64 `json:"longitud"`

	SoilType         *string  `json:"tipo_suelo,omitempty"`
	SUCSClass        *string  `json:"clasificacion_sucs,omitempty"`
	Qadm             *float64 `json:"qadm,omitempty"`
	FoundationDepth  *float64 `json:"profundidad_desplante,omitempty"`
	HasGroundwater   *bool    `json:"presencia_naf,omitempty"`
	GroundwaterDepth *float64 `json:"profundidad_naf,omitempty"`
	FoundationType   *string  `json:"tipo_cimentacion,omitempty"`
	NeedsImprovement *bool    `json:"mejoramiento_requerido,omitempty"`
	CriticalNotes    *string  `json:"observaciones_criticas,omitempty"`
}

// Point returns the sample's geographic coordinate as (lon, lat).
func (s SamplePoint) Point() orb.Point {
	return orb.Point{s.Lon, s.Lat}
}

// VoronoiCell is one polygon of a Thiessen tessellation, owned by a sample.
// Cells are rebuilt on every analysis and never persisted. The ring is in
// geographic coordinates (lon, lat) and closed; the area is measured in the
// projected planar frame, in km².
type VoronoiCell struct {
	OwnerID   int64     `json:"owner_id"`
	OwnerName string    `json:"owner_nombre"`
	Ring      orb.Ring  `json:"ring"`
	AreaKm2   float64   `json:"area_km2"`
	Centroid  orb.Point `json:"centroid"`
}

// NaturalNeighborWeight records how much influence one sample has on a query
// point: the cell area it lost when the query point was inserted into the
// diagram, normalized so the weights of one query sum to 1.
type NaturalNeighborWeight struct {
	Sample        SamplePoint `json:"sample"`
	DistanceKm    float64     `json:"distancia_km"`
	StolenAreaKm2 float64     `json:"area_robada_km2"`
	Weight        float64     `json:"peso"`
}

// Severity classifies how strongly neighbor attributes disagree.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FieldDisagreement describes one attribute whose neighbor values diverge.
// Values holds the raw per-neighbor observations for audit.
type FieldDisagreement struct {
	Field    string   `json:"campo"`
	Values   []string `json:"valores"`
	Variance float64  `json:"variacion"`
}

// HeterogeneityAlert flags high disagreement among a query's neighbors.
type HeterogeneityAlert struct {
	Severity Severity            `json:"severidad"`
	Message  string              `json:"mensaje"`
	Fields   []FieldDisagreement `json:"campos"`
}

// NumericEstimate is a weighted numeric aggregate with the observed range.
type NumericEstimate struct {
	Value float64 `json:"valor"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// InferredSoilData mirrors SamplePoint's geotechnical attributes, each one
// estimated from neighbor aggregation or left nil when no neighbor carries
// the attribute.
type InferredSoilData struct {
	SoilType         *string          `json:"tipo_suelo,omitempty"`
	SUCSClass        *string          `json:"clasificacion_sucs,omitempty"`
	FoundationType   *string          `json:"tipo_cimentacion,omitempty"`
	Qadm             *NumericEstimate `json:"qadm_estimado,omitempty"`
	FoundationDepth  *NumericEstimate `json:"profundidad_desplante_estimada,omitempty"`
	GroundwaterDepth *NumericEstimate `json:"profundidad_naf_estimada,omitempty"`
	HasGroundwater   *bool            `json:"presencia_naf_probable,omitempty"`
	NeedsImprovement *bool            `json:"mejoramiento_probable,omitempty"`
	Observations     []string         `json:"observaciones"`
}

// AnalysisResult is the full outcome of one interpolation query. It is a
// value object owned by the invocation that produced it; nothing in it is
// shared or mutated afterwards.
type AnalysisResult struct {
	Query             orb.Point               `json:"query"`
	Parent            *SamplePoint            `json:"parent,omitempty"`
	NearestDistanceKm float64                 `json:"distancia_km"`
	Neighbors         []NaturalNeighborWeight `json:"vecinos"`
	Confidence        float64                 `json:"confianza"`
	IsWithinNetwork   bool                    `json:"dentro_de_red"`
	Cells             []VoronoiCell           `json:"celdas"`
	QueryCell         *VoronoiCell            `json:"celda_query,omitempty"`
	Inferred          InferredSoilData        `json:"inferido"`
	Heterogeneity     *HeterogeneityAlert     `json:"heterogeneidad,omitempty"`
}

// InferredRecord is the persistence contract handed to the store and the
// publisher once an analysis is saved: the inferred data plus provenance.
type InferredRecord struct {
	ID         string           `json:"id"`
	Name       string           `json:"nombre"`
	Lat        float64          `json:"latitud"`
	Lon        float64          `json:"longitud"`
	ParentID   *int64           `json:"parent_id,omitempty"`
	ParentName string           `json:"parent_nombre,omitempty"`
	DistanceKm float64          `json:"distancia_km"`
	Confidence float64          `json:"confianza"`
	CreatedAt  time.Time        `json:"created_at"`
	Data       InferredSoilData `json:"datos"`
}

// BoundingBox is the fixed geographic extent the diagram is valid in. It must
// contain every sample point and every plausible query point; sites outside
// it get clipped incorrectly.
type BoundingBox struct {
	LatMin float64 `yaml:"latMin" json:"lat_min"`
	LatMax float64 `yaml:"latMax" json:"lat_max"`
	LonMin float64 `yaml:"lonMin" json:"lon_min"`
	LonMax float64 `yaml:"lonMax" json:"lon_max"`
}

// DefaultBounds covers the Mexican national extent the store network sits in.
func DefaultBounds() BoundingBox {
	return BoundingBox{LatMin: 14.5, LatMax: 32.7, LonMin: -118.4, LonMax: -86.7}
}

// Contains reports whether a geographic coordinate lies inside the box,
// boundary included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// IsValid reports whether the box has positive extent and legal coordinates.
func (b BoundingBox) IsValid() bool {
	return b.LatMin < b.LatMax && b.LonMin < b.LonMax &&
		b.LatMin >= -90 && b.LatMax <= 90 && b.LonMin >= -180 && b.LonMax <= 180
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// MQTTConfig holds MQTT connection settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// DatabaseConfig holds the Postgres connection string. Empty disables the
// store; the service then serves samples from the JSON export only.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Config is the full configuration file.
type Config struct {
	Bounds    BoundingBox    `yaml:"bounds" json:"bounds"`
	HTTP      HTTPConfig     `yaml:"http" json:"http"`
	MQTT      MQTTConfig     `yaml:"mqtt" json:"mqtt"`
	Database  DatabaseConfig `yaml:"database" json:"database"`
	StoreFile string         `yaml:"storeFile,omitempty" json:"storeFile,omitempty"`
}
