package consensus

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Freetown city centre to Lumley, roughly 5.8 km.
	d := Haversine(8.4840, -13.2299, 8.4330, -13.2770)
	if d < 5000 || d > 7000 {
		t.Errorf("expected roughly 5.8km, got %.0fm", d)
	}

	if d := Haversine(8.46, -13.23, 8.46, -13.23); d != 0 {
		t.Errorf("identical points should be 0m apart, got %v", d)
	}
}

func TestHaversine_SmallOffsets(t *testing.T) {
	// One ten-thousandth of a degree of latitude is about 11 meters.
	d := Haversine(8.4606, -12.2684, 8.4607, -12.2684)
	if math.Abs(d-11) > 1 {
		t.Errorf("expected ~11m, got %.2fm", d)
	}
}

func TestClassifySpread_TightClusterIsAccurate(t *testing.T) {
	// Three verifiers plus the reported point, all within ~10m at the
	// reference coordinate.
	points := [][2]float64{
		{8.4606, -12.2684},
		{8.46065, -12.26842},
		{8.46058, -12.26835},
		{8.46062, -12.26845},
	}
	max, acc := ClassifySpread(points, 50)
	if acc != AccuracyAccurate {
		t.Errorf("expected accurate, got %s (max %.1fm)", acc, max)
	}
	if max >= 50 {
		t.Errorf("max spread %.1fm should be under the radius", max)
	}
}

func TestClassifySpread_WideIsSpreadOut(t *testing.T) {
	// Two verifiers ~500m apart (0.0045° of latitude).
	points := [][2]float64{
		{8.4606, -12.2684},
		{8.4651, -12.2684},
	}
	max, acc := ClassifySpread(points, 50)
	if acc != AccuracySpread {
		t.Errorf("expected spread out, got %s", acc)
	}
	if max < 400 || max > 600 {
		t.Errorf("expected ~500m, got %.0fm", max)
	}
}

func TestClassifySpread_DegenerateInputs(t *testing.T) {
	if _, acc := ClassifySpread(nil, 50); acc != AccuracyAccurate {
		t.Error("no points should classify as accurate")
	}
	if _, acc := ClassifySpread([][2]float64{{8.46, -13.23}}, 50); acc != AccuracyAccurate {
		t.Error("a single point should classify as accurate")
	}
}

func TestClassifySpread_BoundaryIsExclusive(t *testing.T) {
	// "Accurate" means strictly under the radius.
	points := [][2]float64{{0, 0}, {0.00045, 0}} // ~50m apart
	max, acc := ClassifySpread(points, max50(points))
	if acc != AccuracySpread {
		t.Errorf("spread exactly at the radius should classify as spread out (max %.2f)", max)
	}
}

// max50 returns the exact pairwise max so the test can pin the boundary case.
func max50(points [][2]float64) float64 {
	m, _ := ClassifySpread(points, 1)
	return m
}
