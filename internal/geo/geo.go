// Package geo computes great-circle distances and applies the platform's
// fixed nearby radius. Pure functions, no state.
package geo

import (
	"math"
	"sort"
)

const (
	// earthRadiusKm is the mean Earth radius used by the haversine formula.
	earthRadiusKm = 6371.0

	// RadiusKm is the platform-wide "nearby" radius. The boundary is
	// inclusive: an entity at exactly 25.0 km is nearby.
	RadiusKm = 25.0

	// UnknownDistanceKm is the sentinel assigned to candidates without
	// coordinates so they sort after every computable distance.
	UnknownDistanceKm = 999.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Locatable is anything that may carry coordinates. Coordinates returns
// ok=false when the entity has no known position.
type Locatable interface {
	Coordinates() (Point, bool)
}

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// Ranked pairs a candidate with its computed distance from the reference
// point. Distance is UnknownDistanceKm when the candidate has no coordinates.
type Ranked[T Locatable] struct {
	Item       T
	DistanceKm float64
}

// Unknown reports whether the candidate's position was unknown.
func (r Ranked[T]) Unknown() bool { return r.DistanceKm == UnknownDistanceKm }

// Nearby filters candidates to those within RadiusKm of ref and sorts them by
// ascending distance. Candidates without coordinates are included and sort
// last; strict mode excludes them instead (the map view's policy). When ref
// itself is unknown (ok=false), no filtering is applied and the input order
// is preserved with unknown distances.
func Nearby[T Locatable](ref Point, refKnown bool, candidates []T, strict bool) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		point, known := c.Coordinates()
		if !refKnown {
			ranked = append(ranked, Ranked[T]{Item: c, DistanceKm: UnknownDistanceKm})
			continue
		}
		if !known {
			if strict {
				continue
			}
			ranked = append(ranked, Ranked[T]{Item: c, DistanceKm: UnknownDistanceKm})
			continue
		}
		dist := DistanceKm(ref, point)
		if dist > RadiusKm {
			continue
		}
		ranked = append(ranked, Ranked[T]{Item: c, DistanceKm: dist})
	}
	if refKnown {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		})
	}
	return ranked
}
