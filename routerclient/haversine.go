package routerclient

import (
	"math"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// earthRadiusKM is the mean Earth radius in kilometers, matching the
// constant used by the distance-recomputation tooling this is grounded on.
const earthRadiusKM = 6371.0088

// haversineKM returns the great-circle distance between two coordinates in
// kilometers.
func haversineKM(aLat, aLon, bLat, bLon float64) float64 {
	dLat := (bLat - aLat) * math.Pi / 180
	dLon := (bLon - aLon) * math.Pi / 180
	la1 := aLat * math.Pi / 180
	la2 := bLat * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// fallbackMinutes converts a great-circle distance, at the configured mean
// speed, into whole minutes rounded up.
func fallbackMinutes(aLat, aLon, bLat, bLon, speedKMH float64) int {
	if speedKMH <= 0 {
		speedKMH = 45
	}
	km := haversineKM(aLat, aLon, bLat, bLon)
	hours := km / speedKMH
	return int(math.Ceil(hours * 60))
}

// GreatCircleFallbackMinutes computes the §4.A fallback travel time between
// two locations without requiring a live Client — useful to callers (the
// Block Partitioner, tests) that want the same formula even when no Router
// Client is configured.
func GreatCircleFallbackMinutes(a, b model.Location, speedKMH float64) int {
	return fallbackMinutes(a.Latitude, a.Longitude, b.Latitude, b.Longitude, speedKMH)
}
