package boundary

import (
	"os"
	"path/filepath"
	"testing"
)

// A rough box around central Freetown and a second disjoint box east of it,
// written as GeoJSON [lng, lat] pairs.
const testLayer = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Central Freetown", "district": "Western Area Urban"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[
          [-13.30, 8.40], [-13.20, 8.40], [-13.20, 8.50], [-13.30, 8.50], [-13.30, 8.40]
        ]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Waterloo", "district": "Western Area Rural"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[ -13.10, 8.30], [-13.00, 8.30], [-13.00, 8.40], [-13.10, 8.40], [-13.10, 8.30]]],
          [[[ -12.98, 8.30], [-12.95, 8.30], [-12.95, 8.33], [-12.98, 8.33], [-12.98, 8.30]]]
        ]
      }
    }
  ]
}`

func writeTestLayer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wards.geojson")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindContaining_InsideAndOutside(t *testing.T) {
	idx, err := NewIndex("ward", writeTestLayer(t, testLayer))
	if err != nil {
		t.Fatal(err)
	}

	got := idx.FindContaining(8.45, -13.25) // inside the first box
	if got == nil || got.Name != "Central Freetown" {
		t.Fatalf("expected Central Freetown, got %+v", got)
	}
	if got.Region != "Western Area Urban" {
		t.Errorf("expected parent region Western Area Urban, got %q", got.Region)
	}

	if f := idx.FindContaining(9.9, -10.0); f != nil {
		t.Errorf("point far outside all features should resolve to nil, got %+v", f)
	}
}

func TestFindContaining_MultiPolygonMembers(t *testing.T) {
	idx, err := NewIndex("ward", writeTestLayer(t, testLayer))
	if err != nil {
		t.Fatal(err)
	}

	for _, pt := range [][2]float64{{8.35, -13.05}, {8.31, -12.96}} {
		got := idx.FindContaining(pt[0], pt[1])
		if got == nil || got.Name != "Waterloo" {
			t.Errorf("point (%v, %v): expected Waterloo, got %+v", pt[0], pt[1], got)
		}
	}
}

func TestFindContaining_FirstMatchWins(t *testing.T) {
	// Two overlapping features: load order decides.
	overlapping := `{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "properties": {"name": "A"}, "geometry": {"type": "Polygon",
	      "coordinates": [[[0,0],[2,0],[2,2],[0,2],[0,0]]]}},
	    {"type": "Feature", "properties": {"name": "B"}, "geometry": {"type": "Polygon",
	      "coordinates": [[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}
	  ]
	}`
	idx, err := NewIndex("test", writeTestLayer(t, overlapping))
	if err != nil {
		t.Fatal(err)
	}
	if got := idx.FindContaining(1, 1); got == nil || got.Name != "A" {
		t.Errorf("expected first-loaded feature A, got %+v", got)
	}
}

func TestReload_ReplacesFeatures(t *testing.T) {
	path := writeTestLayer(t, testLayer)
	idx, err := NewIndex("ward", path)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 features, got %d", idx.Len())
	}

	single := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"name":"Only"},"geometry":{"type":"Polygon",
	   "coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`
	if err := os.WriteFile(path, []byte(single), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Reload(); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 feature after reload, got %d", idx.Len())
	}
}

func TestReload_KeepsOldFeaturesOnError(t *testing.T) {
	path := writeTestLayer(t, testLayer)
	idx, err := NewIndex("ward", path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Reload(); err == nil {
		t.Fatal("expected reload of a corrupt file to fail")
	}
	if idx.Len() != 2 {
		t.Errorf("failed reload must keep the previous features, got %d", idx.Len())
	}
}

func TestLoadFile_RejectsUnsupportedGeometry(t *testing.T) {
	bad := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"name":"P"},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	if _, err := LoadFile(writeTestLayer(t, bad)); err == nil {
		t.Error("expected Point geometry to be rejected")
	}
}

func TestRingContains_Vertices(t *testing.T) {
	ring := Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{2, 2, true},    // centroid
		{5, 2, false},   // north of the box
		{2, -1, false},  // west of the box
		{3.99, 3.99, true},
	}
	for _, c := range cases {
		if got := ringContains(ring, c.lat, c.lng); got != c.want {
			t.Errorf("ringContains(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}
