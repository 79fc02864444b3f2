package consensus

import "math"

// Accuracy classifies how tightly a problem's verification points agree.
// A display/trust signal only — it never gates a state transition.
type Accuracy string

const (
	AccuracyAccurate Accuracy = "accurate"
	AccuracySpread   Accuracy = "spread out"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ClassifySpread computes the maximum pairwise distance among the given
// points ([lat, lng]) and labels it against radiusM. Fewer than two points
// are trivially accurate.
func ClassifySpread(points [][2]float64, radiusM float64) (float64, Accuracy) {
	var max float64
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			d := Haversine(points[i][0], points[i][1], points[j][0], points[j][1])
			if d > max {
				max = d
			}
		}
	}
	if max < radiusM {
		return max, AccuracyAccurate
	}
	return max, AccuracySpread
}
