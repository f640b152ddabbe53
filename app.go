package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"suelogrid/suelo"
)

// App encapsulates the application state and dependencies
type App struct {
	Config       *suelo.Config
	StateTracker *suelo.StateTracker
	MQTTClient   *suelo.MQTTClient
	Publisher    *suelo.Publisher
	Store        *suelo.Store
	Pool         *pgxpool.Pool

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	StoresFile   string
	QueryLat     float64
	QueryLon     float64
	KMZFile      string
	QueryName    string
	SaveRecord   bool
	OutputFile   string
	RenderFormat string
	VectorFormat string
	HTTPPort     int
	MqttMode     bool
	HTTPMode     bool
}

// AppOptions carries the parsed CLI flags into the App.
type AppOptions struct {
	ConfigFile   string
	StoresFile   string
	QueryLat     float64
	QueryLon     float64
	KMZFile      string
	QueryName    string
	SaveRecord   bool
	OutputFile   string
	RenderFormat string
	VectorFormat string
	HTTPPort     int
	MqttMode     bool
	HTTPMode     bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		StateTracker: suelo.NewStateTracker(),
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.StoresFile = opts.StoresFile
	a.QueryLat = opts.QueryLat
	a.QueryLon = opts.QueryLon
	a.KMZFile = opts.KMZFile
	a.QueryName = opts.QueryName
	a.SaveRecord = opts.SaveRecord
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.VectorFormat = opts.VectorFormat
	a.HTTPPort = opts.HTTPPort
	a.MqttMode = opts.MqttMode
	a.HTTPMode = opts.HTTPMode
}

// loadConfig reads the config file, falling back to defaults when none
// exists, and applies CLI overrides.
func (a *App) loadConfig() {
	if _, err := os.Stat(a.ConfigFile); err == nil {
		config, err := suelo.LoadConfig(a.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		a.Config = config
		log.Printf("Loaded config from %s", a.ConfigFile)
	} else {
		a.Config = suelo.DefaultConfig()
		log.Printf("No config file at %s, using defaults", a.ConfigFile)
	}

	if a.HTTPPort > 0 {
		a.Config.HTTP.Port = a.HTTPPort
	}
	if a.StoresFile != "" {
		a.Config.StoreFile = a.StoresFile
	}
}

// loadSamples loads the sample network: from Postgres when a database URL is
// configured, otherwise from the JSON export file.
func (a *App) loadSamples(ctx context.Context) {
	if a.Config.Database.URL != "" {
		pool, err := suelo.Connect(ctx, a.Config.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		a.Pool = pool
		a.Store = suelo.NewStore(pool)

		samples, err := a.Store.ListSamplePoints(ctx)
		if err != nil {
			log.Fatalf("Failed to load samples from database: %v", err)
		}
		a.StateTracker.SetSamples(suelo.FilterWithinBounds(samples, a.Config.Bounds))
		log.Printf("Loaded %d samples from database", a.StateTracker.SampleCount())
		return
	}

	if a.Config.StoreFile == "" {
		log.Fatal("No database URL and no stores file configured")
	}

	samples, err := suelo.ParseStoresFile(a.Config.StoreFile)
	if err != nil {
		log.Fatalf("Failed to parse stores file %s: %v", a.Config.StoreFile, err)
	}
	dropped := len(samples)
	samples = suelo.FilterWithinBounds(samples, a.Config.Bounds)
	dropped -= len(samples)
	if dropped > 0 {
		log.Printf("Warning: dropped %d samples outside the configured bounds", dropped)
	}
	a.StateTracker.SetSamples(samples)
	log.Printf("Loaded %d samples from %s", len(samples), a.Config.StoreFile)
}

// resolveQuery determines the query point from the CLI flags: either an
// explicit lat/lon pair or a KMZ/KML placemark.
func (a *App) resolveQuery() orb.Point {
	if a.KMZFile != "" {
		var point orb.Point
		var err error
		if strings.HasSuffix(strings.ToLower(a.KMZFile), ".kml") {
			f, openErr := os.Open(a.KMZFile)
			if openErr != nil {
				log.Fatalf("Failed to open KML file: %v", openErr)
			}
			defer func() { _ = f.Close() }()
			point, err = suelo.ExtractKMLCoordinate(f)
		} else {
			point, err = suelo.ExtractKMZCoordinate(a.KMZFile)
		}
		if err != nil {
			log.Fatalf("Failed to extract coordinate from %s: %v", a.KMZFile, err)
		}
		fmt.Printf("Query from %s: (%.6f, %.6f)\n", a.KMZFile, point[1], point[0])
		return point
	}

	if a.QueryLat == 0 && a.QueryLon == 0 {
		log.Fatal("No query location: pass --lat/--lon or --kmz")
	}
	return orb.Point{a.QueryLon, a.QueryLat}
}

// RunAnalyze runs a single interpolation query and prints the result as JSON.
func (a *App) RunAnalyze() {
	ctx := context.Background()
	a.loadConfig()
	a.loadSamples(ctx)
	defer a.close()

	query := a.resolveQuery()
	if !a.Config.Bounds.Contains(query[1], query[0]) {
		log.Fatalf("Query (%.6f, %.6f) is outside the configured bounds", query[1], query[0])
	}

	samples := a.StateTracker.Samples()
	result := suelo.Analyze(samples, query, a.Config.Bounds)
	a.StateTracker.SetLastAnalysis(result)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))

	if a.SaveRecord {
		a.persistResult(ctx, result)
	}

	if a.OutputFile != "" && (a.RenderFormat == "raster" || a.RenderFormat == "vector" || a.RenderFormat == "both") {
		a.renderResult(&result, samples)
	}
}

// persistResult saves the analysis to the database (when configured) and
// publishes it over MQTT (when configured).
func (a *App) persistResult(ctx context.Context, result suelo.AnalysisResult) {
	name := a.QueryName
	if name == "" {
		name = fmt.Sprintf("site-%.5f-%.5f", result.Query[1], result.Query[0])
	}
	rec := suelo.NewInferredRecord(uuid.NewString(), name, result, time.Now().UTC())

	if a.Store != nil {
		if err := a.Store.SaveInferredRecord(ctx, &rec); err != nil {
			log.Printf("Error saving record: %v", err)
		} else {
			log.Printf("Saved record %s", rec.ID)
		}
	}

	if a.Publisher == nil && a.Config.MQTT.Broker != "" {
		mqttClient, err := suelo.InitMQTT(a.Config)
		if err != nil {
			log.Printf("Error connecting to MQTT: %v", err)
		} else if mqttClient != nil {
			a.MQTTClient = mqttClient
			a.Publisher = suelo.NewPublisher(mqttClient.GetClient(), a.Config.MQTT.PublishPrefix)
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.PublishRecord(&rec); err != nil {
			log.Printf("Error publishing record: %v", err)
		}
	}
}

// renderResult writes the diagram image(s) for a completed analysis.
func (a *App) renderResult(result *suelo.AnalysisResult, samples []suelo.SamplePoint) {
	if a.RenderFormat == "raster" || a.RenderFormat == "both" {
		renderer := suelo.NewDiagramRenderer(result, samples, a.Config.Bounds)
		if err := renderer.SavePNG(a.OutputFile); err != nil {
			log.Fatalf("Failed to write %s: %v", a.OutputFile, err)
		}
		fmt.Printf("Created: %s\n", a.OutputFile)
	}

	if a.RenderFormat == "vector" || a.RenderFormat == "both" {
		vectorPath := vectorOutputPath(a.OutputFile, a.VectorFormat)
		f, err := os.Create(vectorPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", vectorPath, err)
		}
		defer func() { _ = f.Close() }()

		renderer := suelo.NewVectorRenderer(result, samples, a.Config.Bounds)
		if a.VectorFormat == "png" {
			err = renderer.RenderToPNG(f)
		} else {
			err = renderer.RenderToSVG(f)
		}
		if err != nil {
			log.Fatalf("Failed to render %s: %v", vectorPath, err)
		}
		fmt.Printf("Created: %s\n", vectorPath)
	}
}

// vectorOutputPath derives the vector output filename from the raster one.
func vectorOutputPath(rasterPath, format string) string {
	ext := ".svg"
	if format == "png" {
		ext = ".png"
	}
	base := strings.TrimSuffix(rasterPath, ".png")
	base = strings.TrimSuffix(base, ".svg")
	if format == "png" && base+ext == rasterPath {
		base += "-vector"
	}
	return base + ext
}

// RunRender renders the tessellation of the whole sample network and exits.
func (a *App) RunRender() {
	ctx := context.Background()
	a.loadConfig()
	a.loadSamples(ctx)
	defer a.close()

	samples := a.StateTracker.Samples()
	if len(samples) == 0 {
		log.Fatal("No samples to render")
	}

	// The diagram is built without a query point: render cells only.
	cells := suelo.BuildDiagram(samples, a.Config.Bounds)
	result := suelo.AnalysisResult{Cells: cells, Query: samples[0].Point()}
	result.Parent = nil

	renderer := suelo.NewDiagramRenderer(&result, samples, a.Config.Bounds)
	renderer.Labels = true
	if err := renderer.SavePNG(a.OutputFile); err != nil {
		log.Fatalf("Failed to write %s: %v", a.OutputFile, err)
	}
	fmt.Printf("Created: %s (%d cells)\n", a.OutputFile, len(cells))
}

// RunService starts the HTTP API and/or the MQTT publisher and blocks until
// interrupted.
func (a *App) RunService() {
	fmt.Println("Starting suelogrid service...")

	ctx := context.Background()
	a.loadConfig()
	a.loadSamples(ctx)
	defer a.close()

	if a.MqttMode {
		mqttClient, err := suelo.InitMQTT(a.Config)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		if mqttClient == nil {
			log.Fatal("MQTT broker not configured (set mqtt.broker or MQTT_BROKER)")
		}
		a.MQTTClient = mqttClient
		a.Publisher = suelo.NewPublisher(mqttClient.GetClient(), a.Config.MQTT.PublishPrefix)
		fmt.Println("MQTT record publisher initialized")
	}

	if a.HTTPMode {
		httpServer := newHTTPServer(a)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.Config.HTTP.Port)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	fmt.Println("\nService Running")
	fmt.Println("===============")

	if a.MqttMode {
		fmt.Println("\nMQTT:")
		fmt.Printf("  Publishing analyses to: %s/analysis\n", a.Config.MQTT.PublishPrefix)
		fmt.Printf("  Retained records: %s/records\n", a.Config.MQTT.PublishPrefix)
	}

	if a.HTTPMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", a.Config.HTTP.Port)
		fmt.Println("  GET  /health           - Health check")
		fmt.Println("  GET  /api/stores       - Sample network (filters: ciudad, año, q)")
		fmt.Println("  GET  /api/stores/{id}  - One sample by ID")
		fmt.Println("  GET  /api/cities       - Distinct cities")
		fmt.Println("  GET  /api/years        - Distinct years")
		fmt.Println("  POST /api/analyze      - Interpolate a location")
		fmt.Println("  GET  /api/records      - Saved analyses")
		fmt.Println("  GET  /api/voronoi.png  - Diagram of the last analysis")
		fmt.Println("  GET  /api/voronoi.svg  - Diagram of the last analysis (vector)")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down service...")
	a.close()
	fmt.Println("Service stopped")
}

func (a *App) close() {
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
		a.MQTTClient = nil
	}
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
}
