package suelo

import (
	"encoding/json"
	"fmt"
	"os"
)

// storeRow is the wire shape of one store in the dashboard JSON export.
// Coordinates are nullable there; rows without both are unusable by the
// engine and get filtered during conversion.
type storeRow struct {
	ID   int64    `json:"id"`
	Name *string  `json:"nombre"`
	City *string  `json:"ciudad"`
	Year *int     `json:"año"`
	Lat  *float64 `json:"latitud"`
	Lon  *float64 `json:"longitud"`

	SoilType         *string  `json:"tipo_suelo"`
	SUCSClass        *string  `json:"clasificacion_sucs"`
	Qadm             *float64 `json:"qadm"`
	FoundationDepth  *float64 `json:"profundidad_desplante"`
	HasGroundwater   *bool    `json:"presencia_naf"`
	GroundwaterDepth *float64 `json:"profundidad_naf"`
	FoundationType   *string  `json:"tipo_cimentacion"`
	NeedsImprovement *bool    `json:"mejoramiento_requerido"`
	CriticalNotes    *string  `json:"observaciones_criticas"`
}

// storeExport is the dashboard JSON export envelope.
type storeExport struct {
	Stores []storeRow `json:"stores"`
}

// ParseStoresFile reads a dashboard JSON export and returns the sample
// points usable by the engine. Rows with missing or out-of-range coordinates
// are dropped, not errors: the export routinely contains un-geocoded stores.
func ParseStoresFile(path string) ([]SamplePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseStoresJSON(data)
}

// ParseStoresJSON parses dashboard export JSON data. It accepts both the
// full export envelope ({"stores": [...]}) and a bare store array.
func ParseStoresJSON(data []byte) ([]SamplePoint, error) {
	var export storeExport
	if err := json.Unmarshal(data, &export); err != nil || export.Stores == nil {
		var rows []storeRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		export.Stores = rows
	}

	samples := make([]SamplePoint, 0, len(export.Stores))
	for _, row := range export.Stores {
		if row.Lat == nil || row.Lon == nil {
			continue
		}
		if *row.Lat < -90 || *row.Lat > 90 || *row.Lon < -180 || *row.Lon > 180 {
			continue
		}
		sample := SamplePoint{
			ID:  row.ID,
			Lat: *row.Lat,
			Lon: *row.Lon,

			SoilType:         row.SoilType,
			SUCSClass:        row.SUCSClass,
			Qadm:             row.Qadm,
			FoundationDepth:  row.FoundationDepth,
			HasGroundwater:   row.HasGroundwater,
			GroundwaterDepth: row.GroundwaterDepth,
			FoundationType:   row.FoundationType,
			NeedsImprovement: row.NeedsImprovement,
			CriticalNotes:    row.CriticalNotes,
		}
		if row.Name != nil {
			sample.Name = *row.Name
		}
		if row.City != nil {
			sample.City = *row.City
		}
		if row.Year != nil {
			sample.Year = *row.Year
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// FilterWithinBounds drops samples that fall outside the configured bounding
// box; edge samples outside the box would otherwise be clipped incorrectly.
func FilterWithinBounds(samples []SamplePoint, bounds BoundingBox) []SamplePoint {
	kept := make([]SamplePoint, 0, len(samples))
	for _, s := range samples {
		if bounds.Contains(s.Lat, s.Lon) {
			kept = append(kept, s)
		}
	}
	return kept
}
