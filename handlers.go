package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"suelogrid/suelo"
)

// analyzeRequest is the POST /api/analyze body.
type analyzeRequest struct {
	Lat  float64 `json:"latitud"`
	Lon  float64 `json:"longitud"`
	Name string  `json:"nombre,omitempty"`
	Save bool    `json:"guardar,omitempty"`
}

// storesResponse wraps the sample list with the filter metadata the
// dashboard uses to populate its dropdowns.
type storesResponse struct {
	Stores []suelo.SamplePoint `json:"stores"`
	Total  int                 `json:"total"`
	Cities []string            `json:"cities"`
	Years  []int               `json:"years"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(app *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Samples   int       `json:"samples"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Samples:   app.StateTracker.SampleCount(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Sample network with optional filters: ciudad, año, q (substring search)
	mux.HandleFunc("/api/stores", func(w http.ResponseWriter, r *http.Request) {
		samples := app.StateTracker.Samples()

		city := r.URL.Query().Get("ciudad")
		yearStr := r.URL.Query().Get("año")
		if yearStr == "" {
			yearStr = r.URL.Query().Get("anio")
		}
		search := strings.ToLower(r.URL.Query().Get("q"))

		var year int
		if yearStr != "" {
			y, err := strconv.Atoi(yearStr)
			if err != nil {
				http.Error(w, "invalid año", http.StatusBadRequest)
				return
			}
			year = y
		}

		filtered := make([]suelo.SamplePoint, 0, len(samples))
		for _, sp := range samples {
			if city != "" && !strings.EqualFold(sp.City, city) {
				continue
			}
			if year != 0 && sp.Year != year {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(sp.Name), search) &&
				!strings.Contains(strings.ToLower(sp.City), search) {
				continue
			}
			filtered = append(filtered, sp)
		}

		resp := storesResponse{
			Stores: filtered,
			Total:  len(filtered),
			Cities: distinctCities(samples),
			Years:  distinctYears(samples),
		}
		writeJSON(w, resp)
	})

	// One sample by ID
	mux.HandleFunc("/api/stores/", func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/api/stores/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "invalid store ID", http.StatusBadRequest)
			return
		}

		for _, sp := range app.StateTracker.Samples() {
			if sp.ID == id {
				writeJSON(w, sp)
				return
			}
		}
		http.Error(w, "store not found", http.StatusNotFound)
	})

	mux.HandleFunc("/api/cities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, distinctCities(app.StateTracker.Samples()))
	})

	mux.HandleFunc("/api/years", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, distinctYears(app.StateTracker.Samples()))
	})

	// Interpolate a location. POST takes a JSON body; GET takes lat/lon
	// query params for quick checks.
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		switch r.Method {
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON body", http.StatusBadRequest)
				return
			}
		case http.MethodGet:
			lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
			lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
			if errLat != nil || errLon != nil {
				http.Error(w, "lat and lon query params required", http.StatusBadRequest)
				return
			}
			req.Lat, req.Lon = lat, lon
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if !app.Config.Bounds.Contains(req.Lat, req.Lon) {
			http.Error(w, fmt.Sprintf("location (%.6f, %.6f) outside bounds", req.Lat, req.Lon),
				http.StatusUnprocessableEntity)
			return
		}

		samples := app.StateTracker.Samples()
		result := suelo.Analyze(samples, orb.Point{req.Lon, req.Lat}, app.Config.Bounds)
		app.StateTracker.SetLastAnalysis(result)

		if req.Save {
			name := req.Name
			if name == "" {
				name = fmt.Sprintf("site-%.5f-%.5f", req.Lat, req.Lon)
			}
			rec := suelo.NewInferredRecord(uuid.NewString(), name, result, time.Now().UTC())
			if app.Store != nil {
				if err := app.Store.SaveInferredRecord(r.Context(), &rec); err != nil {
					log.Printf("Error saving record: %v", err)
				}
			}
			if app.Publisher != nil {
				if err := app.Publisher.PublishRecord(&rec); err != nil {
					log.Printf("Error publishing record: %v", err)
				}
			}
		}

		writeJSON(w, result)
	})

	// Saved analyses, newest first
	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		if app.Store != nil {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			records, err := app.Store.ListInferredRecords(r.Context(), limit)
			if err != nil {
				log.Printf("Error listing records: %v", err)
				http.Error(w, "failed to list records", http.StatusInternalServerError)
				return
			}
			writeJSON(w, records)
			return
		}
		if app.Publisher != nil {
			writeJSON(w, app.Publisher.AllRecords())
			return
		}
		http.Error(w, "no record store configured", http.StatusServiceUnavailable)
	})

	// Raster diagram of the last analysis (or the plain tessellation when
	// lat/lon are given, a fresh analysis for that point)
	mux.HandleFunc("/api/voronoi.png", func(w http.ResponseWriter, r *http.Request) {
		result, samples, ok := app.diagramResult(r)
		if !ok {
			http.Error(w, "no analysis available; pass lat and lon", http.StatusServiceUnavailable)
			return
		}

		renderer := suelo.NewDiagramRenderer(result, samples, app.Config.Bounds)
		img := renderer.Render()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding diagram PNG: %v", err)
		}
	})

	// Vector diagram
	mux.HandleFunc("/api/voronoi.svg", func(w http.ResponseWriter, r *http.Request) {
		result, samples, ok := app.diagramResult(r)
		if !ok {
			http.Error(w, "no analysis available; pass lat and lon", http.StatusServiceUnavailable)
			return
		}

		renderer := suelo.NewVectorRenderer(result, samples, app.Config.Bounds)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error rendering diagram SVG: %v", err)
		}
	})

	return mux
}

// diagramResult resolves what the image endpoints should draw: a fresh
// analysis when lat/lon query params are present, else the last analysis,
// else nothing.
func (a *App) diagramResult(r *http.Request) (*suelo.AnalysisResult, []suelo.SamplePoint, bool) {
	samples := a.StateTracker.Samples()

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat == nil && errLon == nil && a.Config.Bounds.Contains(lat, lon) {
			result := suelo.Analyze(samples, orb.Point{lon, lat}, a.Config.Bounds)
			a.StateTracker.SetLastAnalysis(result)
			return &result, samples, true
		}
	}

	if last := a.StateTracker.LastAnalysis(); last != nil {
		return last, samples, true
	}
	return nil, nil, false
}

func distinctCities(samples []suelo.SamplePoint) []string {
	seen := make(map[string]bool)
	var cities []string
	for _, sp := range samples {
		if sp.City != "" && !seen[sp.City] {
			seen[sp.City] = true
			cities = append(cities, sp.City)
		}
	}
	sort.Strings(cities)
	return cities
}

func distinctYears(samples []suelo.SamplePoint) []int {
	seen := make(map[int]bool)
	var years []int
	for _, sp := range samples {
		if sp.Year != 0 && !seen[sp.Year] {
			seen[sp.Year] = true
			years = append(years, sp.Year)
		}
	}
	sort.Ints(years)
	return years
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
