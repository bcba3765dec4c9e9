package sim

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters is the haversine distance between two positions.
func DistanceMeters(a, b Position) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func SamePlace(a, b Position, toleranceMeters float64) bool {
	return DistanceMeters(a, b) <= toleranceMeters
}

// NearestBuilding returns the building closest to from, or nil when the
// slice is empty.
func NearestBuilding(from Position, buildings []Building) *Building {
	var best *Building
	bestDist := math.MaxFloat64
	for i := range buildings {
		d := DistanceMeters(from, buildings[i].Position)
		if d < bestDist {
			bestDist = d
			best = &buildings[i]
		}
	}
	return best
}

// RoundAmount rounds a fractional quantity to the given number of
// decimal places.
func RoundAmount(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
