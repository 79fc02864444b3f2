package boundary

import (
	"log"
	"os"
)

// Layers bundles the two granularities we serve: districts and the finer
// wards inside them. Either layer may be absent when its dataset path is not
// configured; queries against an absent layer return nil.
type Layers struct {
	Ward     *Index
	District *Index
}

// LoadFromEnv builds the layers from WARD_BOUNDARIES and DISTRICT_BOUNDARIES.
// Missing env vars degrade gracefully (the engine runs without boundary
// assignment); a configured path that fails to load is fatal.
func LoadFromEnv() *Layers {
	var layers Layers

	if path := os.Getenv("WARD_BOUNDARIES"); path != "" {
		idx, err := NewIndex("ward", path)
		if err != nil {
			log.Fatal("[boundary] ", err)
		}
		layers.Ward = idx
	} else {
		log.Println("[boundary] WARD_BOUNDARIES not set, ward lookups disabled")
	}

	if path := os.Getenv("DISTRICT_BOUNDARIES"); path != "" {
		idx, err := NewIndex("district", path)
		if err != nil {
			log.Fatal("[boundary] ", err)
		}
		layers.District = idx
	} else {
		log.Println("[boundary] DISTRICT_BOUNDARIES not set, district lookups disabled")
	}

	return &layers
}

// FindWard resolves the finest configured layer containing the point.
func (l *Layers) FindWard(lat, lng float64) *Feature {
	if l == nil || l.Ward == nil {
		return nil
	}
	return l.Ward.FindContaining(lat, lng)
}

// FindDistrict resolves the district layer containing the point.
func (l *Layers) FindDistrict(lat, lng float64) *Feature {
	if l == nil || l.District == nil {
		return nil
	}
	return l.District.FindContaining(lat, lng)
}

// ReloadAll re-reads every configured layer, stopping at the first failure so
// a half-updated dataset pair is noticed.
func (l *Layers) ReloadAll() error {
	if l.Ward != nil {
		if err := l.Ward.Reload(); err != nil {
			return err
		}
	}
	if l.District != nil {
		if err := l.District.Reload(); err != nil {
			return err
		}
	}
	return nil
}
