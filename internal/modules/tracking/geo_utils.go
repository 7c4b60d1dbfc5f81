// Package tracking — geo_utils contains pure geographic computation helpers.
package tracking

import (
	"math"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance in metres between two
// points specified in decimal degrees.
func HaversineMeters(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// EtaMinutes estimates arrival time from the latest courier position to the
// destination: straight-line distance over an assumed constant speed, rounded
// up to whole minutes. Deliberately coarse — no routing graph, no traffic.
// Degenerate input (zero distance, non-positive speed) yields 0.
func EtaMinutes(from, to types.Point, speedMps float64) int {
	if speedMps <= 0 {
		return 0
	}
	return int(math.Ceil(HaversineMeters(from, to) / speedMps / 60.0))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
