package suelo

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ExtractKMZCoordinate opens a KMZ archive, finds the first KML document
// inside it, and returns the first placemark coordinate as (lon, lat). Field
// surveys deliver query locations as single-placemark KMZ files, so only the
// first coordinate matters.
func ExtractKMZCoordinate(path string) (orb.Point, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return orb.Point{}, fmt.Errorf("opening KMZ: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".kml") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return orb.Point{}, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		point, err := ExtractKMLCoordinate(rc)
		rc.Close()
		if err != nil {
			return orb.Point{}, fmt.Errorf("parsing %s: %w", file.Name, err)
		}
		return point, nil
	}

	return orb.Point{}, fmt.Errorf("no KML document found in %s", path)
}

// ExtractKMLCoordinate scans a KML stream for the first <coordinates>
// element and returns its first point as (lon, lat). KML coordinate text is
// "lon,lat[,alt]" tuples separated by whitespace, in any namespace.
func ExtractKMLCoordinate(r io.Reader) (orb.Point, error) {
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return orb.Point{}, fmt.Errorf("no coordinates element found")
		}
		if err != nil {
			return orb.Point{}, fmt.Errorf("decoding KML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "coordinates" {
			continue
		}

		var text string
		if err := decoder.DecodeElement(&text, &start); err != nil {
			return orb.Point{}, fmt.Errorf("decoding coordinates: %w", err)
		}

		point, ok := parseCoordinateTuple(text)
		if !ok {
			// Empty or malformed element; keep scanning for the next one.
			continue
		}
		return point, nil
	}
}

// parseCoordinateTuple parses the first "lon,lat[,alt]" tuple from KML
// coordinate text.
func parseCoordinateTuple(text string) (orb.Point, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return orb.Point{}, false
	}
	parts := strings.Split(fields[0], ",")
	if len(parts) < 2 {
		return orb.Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}
