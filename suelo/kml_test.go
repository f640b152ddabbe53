package suelo

import (
	"archive/zip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const placemarkKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Sitio propuesto</name>
      <Point>
        <coordinates>
          -99.1677,19.4270,0
        </coordinates>
      </Point>
    </Placemark>
  </Document>
</kml>`

// ---------------------------------------------------------------------------
// ExtractKMLCoordinate
// ---------------------------------------------------------------------------

func TestExtractKMLCoordinate(t *testing.T) {
	point, err := ExtractKMLCoordinate(strings.NewReader(placemarkKML))
	if err != nil {
		t.Fatalf("ExtractKMLCoordinate: %v", err)
	}
	if math.Abs(point[0]+99.1677) > 1e-9 || math.Abs(point[1]-19.4270) > 1e-9 {
		t.Errorf("point = %v, want (-99.1677, 19.4270)", point)
	}
}

func TestExtractKMLCoordinate_NoCoordinates(t *testing.T) {
	kml := `<?xml version="1.0"?><kml><Document><name>vacio</name></Document></kml>`
	if _, err := ExtractKMLCoordinate(strings.NewReader(kml)); err == nil {
		t.Error("expected an error for KML without coordinates")
	}
}

func TestExtractKMLCoordinate_SkipsEmptyElement(t *testing.T) {
	kml := `<?xml version="1.0"?><kml><Document>
		<Placemark><Point><coordinates>  </coordinates></Point></Placemark>
		<Placemark><Point><coordinates>-100.5,25.5</coordinates></Point></Placemark>
	</Document></kml>`
	point, err := ExtractKMLCoordinate(strings.NewReader(kml))
	if err != nil {
		t.Fatalf("ExtractKMLCoordinate: %v", err)
	}
	if point[0] != -100.5 || point[1] != 25.5 {
		t.Errorf("point = %v, want (-100.5, 25.5)", point)
	}
}

// ---------------------------------------------------------------------------
// parseCoordinateTuple
// ---------------------------------------------------------------------------

func TestParseCoordinateTuple(t *testing.T) {
	cases := []struct {
		text    string
		wantLon float64
		wantLat float64
		ok      bool
	}{
		{"-99.1,19.4,0", -99.1, 19.4, true},
		{"-99.1,19.4", -99.1, 19.4, true},
		{"  -99.1,19.4 -98.0,20.0 ", -99.1, 19.4, true}, // first tuple wins
		{"", 0, 0, false},
		{"solo", 0, 0, false},
		{"abc,def", 0, 0, false},
	}
	for _, c := range cases {
		point, ok := parseCoordinateTuple(c.text)
		if ok != c.ok {
			t.Errorf("parseCoordinateTuple(%q) ok = %v, want %v", c.text, ok, c.ok)
			continue
		}
		if ok && (point[0] != c.wantLon || point[1] != c.wantLat) {
			t.Errorf("parseCoordinateTuple(%q) = %v, want (%g, %g)", c.text, point, c.wantLon, c.wantLat)
		}
	}
}

// ---------------------------------------------------------------------------
// ExtractKMZCoordinate
// ---------------------------------------------------------------------------

func writeKMZ(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.kmz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating KMZ: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("writing entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing KMZ: %v", err)
	}
	return path
}

func TestExtractKMZCoordinate(t *testing.T) {
	path := writeKMZ(t, map[string]string{
		"doc.kml":    placemarkKML,
		"styles.txt": "not kml",
	})

	point, err := ExtractKMZCoordinate(path)
	if err != nil {
		t.Fatalf("ExtractKMZCoordinate: %v", err)
	}
	if math.Abs(point[0]+99.1677) > 1e-9 || math.Abs(point[1]-19.4270) > 1e-9 {
		t.Errorf("point = %v, want (-99.1677, 19.4270)", point)
	}
}

func TestExtractKMZCoordinate_NoKML(t *testing.T) {
	path := writeKMZ(t, map[string]string{"readme.txt": "nothing here"})
	if _, err := ExtractKMZCoordinate(path); err == nil {
		t.Error("expected an error for a KMZ without KML")
	}
}

func TestExtractKMZCoordinate_MissingFile(t *testing.T) {
	if _, err := ExtractKMZCoordinate(filepath.Join(t.TempDir(), "gone.kmz")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
