package boundary

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// GeoJSON wire types, only as deep as we read them.

type featureCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	ID         any            `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   rawGeometry    `json:"geometry"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Property keys tried, in order, for a feature's display name and its parent
// region. Covers the GADM- and OCHA-style datasets we ship.
var nameKeys = []string{"name", "ward_name", "admin3Name", "admin2Name", "NAME"}
var regionKeys = []string{"district", "region", "admin1Name", "parent", "REGION"}

// LoadFile parses a GeoJSON FeatureCollection into boundary features.
// Geometry types other than Polygon/MultiPolygon are rejected: a boundary
// layer containing points or lines is a broken dataset, not a soft case.
func LoadFile(path string) ([]Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary file: %w", err)
	}

	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%s: expected FeatureCollection, got %q", path, fc.Type)
	}

	features := make([]Feature, 0, len(fc.Features))
	for i, rf := range fc.Features {
		f := Feature{
			ID:     featureID(rf, i),
			Name:   firstString(rf.Properties, nameKeys),
			Region: firstString(rf.Properties, regionKeys),
		}

		switch rf.Geometry.Type {
		case "Polygon":
			var rings []Ring
			if err := json.Unmarshal(rf.Geometry.Coordinates, &rings); err != nil {
				return nil, fmt.Errorf("%s feature %s: polygon coordinates: %w", path, f.ID, err)
			}
			if len(rings) == 0 {
				continue
			}
			f.Rings = []Ring{rings[0]} // outer ring only
		case "MultiPolygon":
			var polys [][]Ring
			if err := json.Unmarshal(rf.Geometry.Coordinates, &polys); err != nil {
				return nil, fmt.Errorf("%s feature %s: multipolygon coordinates: %w", path, f.ID, err)
			}
			for _, rings := range polys {
				if len(rings) > 0 {
					f.Rings = append(f.Rings, rings[0])
				}
			}
		default:
			return nil, fmt.Errorf("%s feature %s: unsupported geometry %q", path, f.ID, rf.Geometry.Type)
		}

		if len(f.Rings) > 0 {
			features = append(features, f)
		}
	}

	return features, nil
}

func featureID(rf rawFeature, index int) string {
	switch v := rf.ID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	if s := firstString(rf.Properties, []string{"id", "pcode", "admin3Pcode", "GID_3"}); s != "" {
		return s
	}
	return strconv.Itoa(index)
}

func firstString(props map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
