package main

import (
	"flag"
	"fmt"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	storesFile = flag.String("stores", "", "Path to stores JSON export (overrides config)")

	analyzeMode = flag.Bool("analyze", false, "Run a single analysis and exit")
	queryLat    = flag.Float64("lat", 0, "Query latitude for --analyze")
	queryLon    = flag.Float64("lon", 0, "Query longitude for --analyze")
	kmzFile     = flag.String("kmz", "", "KMZ/KML file with the query placemark for --analyze")
	queryName   = flag.String("name", "", "Name for the analyzed site (used when saving)")
	saveRecord  = flag.Bool("save", false, "Persist and publish the analysis result")

	renderOnly   = flag.Bool("render", false, "Render the diagram and exit")
	outputFile   = flag.String("output", "voronoi-map.png", "Output file for --render and --analyze")
	renderFormat = flag.String("format", "raster", "Render format: raster, vector, or both")
	vectorFormat = flag.String("vector-format", "svg", "Vector output format: svg or png")

	httpMode = flag.Bool("http", false, "Enable HTTP API server")
	httpPort = flag.Int("http-port", 0, "HTTP server port (overrides config)")
	mqttMode = flag.Bool("mqtt", false, "Publish analysis results over MQTT")
)

func main() {
	flag.Parse()
	fmt.Printf("suelogrid version: %s\n", Version)

	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:   *configFile,
		StoresFile:   *storesFile,
		QueryLat:     *queryLat,
		QueryLon:     *queryLon,
		KMZFile:      *kmzFile,
		QueryName:    *queryName,
		SaveRecord:   *saveRecord,
		OutputFile:   *outputFile,
		RenderFormat: *renderFormat,
		VectorFormat: *vectorFormat,
		HTTPPort:     *httpPort,
		MqttMode:     *mqttMode,
		HTTPMode:     *httpMode,
	})

	if *analyzeMode {
		app.RunAnalyze()
		return
	}

	if *renderOnly {
		app.RunRender()
		return
	}

	if *httpMode || *mqttMode {
		app.RunService()
		return
	}

	fmt.Println("suelogrid: soil-property interpolation for store sites")
	fmt.Println("Use --analyze --lat=.. --lon=.. to interpolate a single location")
	fmt.Println("Use --analyze --kmz=site.kmz to read the query from a placemark")
	fmt.Println("Use --render to output the tessellation as an image")
	fmt.Println("Use --http to run the HTTP API server")
	fmt.Println("Use --mqtt to publish analysis results over MQTT")
	fmt.Println("Use --http --mqtt to run both together")
	fmt.Println("\nConfiguration:")
	fmt.Println("  config.yaml - bounds, HTTP, MQTT and database settings")
	fmt.Println("  DATABASE_URL / MQTT_BROKER env vars override config values")
}
