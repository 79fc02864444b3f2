package boundary

import (
	"fmt"
	"log"
	"sync"
)

// Index answers point-in-boundary queries over one loaded layer. Features are
// scanned linearly in load order and the first containing feature wins; the
// layers we serve are non-overlapping, so first match is the only match.
// Linear scan is fine at a few thousand features — swap in a spatial grid
// behind FindContaining if that ever stops being true.
type Index struct {
	name string
	path string

	mu       sync.RWMutex
	features []Feature
}

// NewIndex loads the layer eagerly so a bad dataset fails at startup, not on
// the first query.
func NewIndex(name, path string) (*Index, error) {
	idx := &Index{name: name, path: path}
	if err := idx.Reload(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Reload re-reads the layer from disk, replacing the cached features only on
// success. This is the cache-invalidation entrypoint for dataset updates.
func (idx *Index) Reload() error {
	features, err := LoadFile(idx.path)
	if err != nil {
		return fmt.Errorf("reload layer %s: %w", idx.name, err)
	}

	idx.mu.Lock()
	idx.features = features
	idx.mu.Unlock()

	log.Printf("[boundary] layer %s: %d features loaded from %s", idx.name, len(features), idx.path)
	return nil
}

// FindContaining returns the feature whose outer ring contains the point, or
// nil when no loaded feature does.
func (idx *Index) FindContaining(lat, lng float64) *Feature {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for i := range idx.features {
		for _, ring := range idx.features[i].Rings {
			if ringContains(ring, lat, lng) {
				f := idx.features[i]
				return &f
			}
		}
	}
	return nil
}

// Len reports the number of loaded features.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.features)
}

// ringContains is a standard ray-casting test: cast a ray east from the point
// and count edge crossings. Vertices are [lng, lat].
func ringContains(ring Ring, lat, lng float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
