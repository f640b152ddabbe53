package suelo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// same store code works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads sample points and persists inferred records in PostgreSQL.
type Store struct {
	db DBTX
}

// NewStore creates a store backed by db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens a connection pool and verifies the database is reachable.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

const samplePointColumns = `id, nombre, ciudad, anio, latitud, longitud,
	tipo_suelo, clasificacion_sucs, qadm, profundidad_desplante,
	presencia_naf, profundidad_naf, tipo_cimentacion,
	mejoramiento_requerido, observaciones_criticas`

// ListSamplePoints returns every sample with usable coordinates.
func (s *Store) ListSamplePoints(ctx context.Context) ([]SamplePoint, error) {
	query := `
		SELECT ` + samplePointColumns + `
		FROM sample_points
		WHERE latitud IS NOT NULL AND longitud IS NOT NULL
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sample points: %w", err)
	}
	defer rows.Close()

	var samples []SamplePoint
	for rows.Next() {
		sp, err := scanSamplePoint(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sample points: %w", err)
	}
	return samples, nil
}

// GetSamplePoint returns one sample by ID.
func (s *Store) GetSamplePoint(ctx context.Context, id int64) (*SamplePoint, error) {
	query := `
		SELECT ` + samplePointColumns + `
		FROM sample_points
		WHERE id = $1`

	row := s.db.QueryRow(ctx, query, id)
	sp, err := scanSamplePoint(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sp, nil
}

// UpsertSamplePoints inserts or replaces the given samples.
func (s *Store) UpsertSamplePoints(ctx context.Context, samples []SamplePoint) error {
	query := `
		INSERT INTO sample_points (` + samplePointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			nombre = $2, ciudad = $3, anio = $4, latitud = $5, longitud = $6,
			tipo_suelo = $7, clasificacion_sucs = $8, qadm = $9,
			profundidad_desplante = $10, presencia_naf = $11,
			profundidad_naf = $12, tipo_cimentacion = $13,
			mejoramiento_requerido = $14, observaciones_criticas = $15`

	for _, sp := range samples {
		_, err := s.db.Exec(ctx, query,
			sp.ID, sp.Name, sp.City, sp.Year, sp.Lat, sp.Lon,
			sp.SoilType, sp.SUCSClass, sp.Qadm, sp.FoundationDepth,
			sp.HasGroundwater, sp.GroundwaterDepth, sp.FoundationType,
			sp.NeedsImprovement, sp.CriticalNotes)
		if err != nil {
			return fmt.Errorf("upserting sample %d: %w", sp.ID, err)
		}
	}
	return nil
}

// SaveInferredRecord persists a completed analysis. The inferred soil data
// is stored as JSONB alongside the provenance columns.
func (s *Store) SaveInferredRecord(ctx context.Context, rec *InferredRecord) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshaling inferred data: %w", err)
	}

	query := `
		INSERT INTO inferred_records (
			id, nombre, latitud, longitud, parent_id, parent_nombre,
			distancia_km, confianza, created_at, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.db.Exec(ctx, query,
		rec.ID, rec.Name, rec.Lat, rec.Lon, rec.ParentID, rec.ParentName,
		rec.DistanceKm, rec.Confidence, rec.CreatedAt, dataJSON)
	if err != nil {
		return fmt.Errorf("saving inferred record: %w", err)
	}
	return nil
}

// ListInferredRecords returns saved analyses, newest first.
func (s *Store) ListInferredRecords(ctx context.Context, limit int) ([]InferredRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, nombre, latitud, longitud, parent_id, parent_nombre,
			distancia_km, confianza, created_at, data
		FROM inferred_records
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying inferred records: %w", err)
	}
	defer rows.Close()

	var records []InferredRecord
	for rows.Next() {
		var rec InferredRecord
		var dataJSON []byte
		err := rows.Scan(&rec.ID, &rec.Name, &rec.Lat, &rec.Lon,
			&rec.ParentID, &rec.ParentName, &rec.DistanceKm,
			&rec.Confidence, &rec.CreatedAt, &dataJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning inferred record: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &rec.Data); err != nil {
				return nil, fmt.Errorf("decoding inferred data for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inferred records: %w", err)
	}
	return records, nil
}

func scanSamplePoint(row pgx.Row) (SamplePoint, error) {
	var sp SamplePoint
	err := row.Scan(&sp.ID, &sp.Name, &sp.City, &sp.Year, &sp.Lat, &sp.Lon,
		&sp.SoilType, &sp.SUCSClass, &sp.Qadm, &sp.FoundationDepth,
		&sp.HasGroundwater, &sp.GroundwaterDepth, &sp.FoundationType,
		&sp.NeedsImprovement, &sp.CriticalNotes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return sp, err
		}
		return sp, fmt.Errorf("scanning sample point: %w", err)
	}
	return sp, nil
}
