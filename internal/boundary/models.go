package boundary

// Feature is one named administrative boundary (ward, chiefdom, district)
// from a static reference dataset. Only outer rings are kept: the datasets we
// load do not model holes, and containment tests ignore them.
type Feature struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"` // parent region label (e.g. district for a ward)

	// One outer ring per member polygon; a plain Polygon has exactly one.
	Rings []Ring `json:"-"`
}

// Ring is a closed sequence of [lng, lat] vertices in dataset order.
type Ring [][2]float64
