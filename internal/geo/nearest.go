// Package geo holds the single Euclidean-nearest routine shared by the
// Station-Nearest Index and the read API's nearest-city resolution — same
// matrix-distance technique, generalized over whatever coordinate-bearing
// type the caller has.
package geo

import "math"

// Located is anything with a fixed latitude/longitude.
type Located interface {
	Lat() float64
	Lon() float64
}

// Point is a minimal Located implementation for ad-hoc coordinates.
type Point struct {
	Latitude, Longitude float64
}

func (p Point) Lat() float64 { return p.Latitude }
func (p Point) Lon() float64 { return p.Longitude }

// Nearest returns the index of the item in items with minimum squared
// Euclidean distance to target. Ties are broken by lowest index. Returns -1
// if items is empty.
func Nearest[T Located](target Located, items []T) int {
	best := -1
	bestDist := math.MaxFloat64
	for i, it := range items {
		dLat := it.Lat() - target.Lat()
		dLon := it.Lon() - target.Lon()
		dist := dLat*dLat + dLon*dLon
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
