package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type site struct {
	name  string
	point *Point
}

func (s site) Coordinates() (Point, bool) {
	if s.point == nil {
		return Point{}, false
	}
	return *s.point, true
}

func at(lat, lon float64) *Point { return &Point{Lat: lat, Lon: lon} }

func TestDistanceKm(t *testing.T) {
	hyderabad := Point{Lat: 17.3850, Lon: 78.4867}
	secunderabad := Point{Lat: 17.4399, Lon: 78.4983}

	t.Run("distance to self is zero", func(t *testing.T) {
		assert.Zero(t, DistanceKm(hyderabad, hyderabad))
	})

	t.Run("distance is symmetric", func(t *testing.T) {
		assert.InDelta(t, DistanceKm(hyderabad, secunderabad), DistanceKm(secunderabad, hyderabad), 1e-9)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		a := Point{Lat: 17.0, Lon: 78.0}
		b := Point{Lat: 18.0, Lon: 78.0}
		dist := DistanceKm(a, b)
		assert.Greater(t, dist, 110.0)
		assert.Less(t, dist, 112.0)
	})
}

func TestNearby(t *testing.T) {
	ref := Point{Lat: 17.3850, Lon: 78.4867}

	// One degree of latitude is ~111.2 km, so 0.2247 degrees lands a few
	// hundred meters inside the 25 km boundary and 0.2260 just outside it.
	inside := site{name: "inside", point: at(17.3850+0.2240, 78.4867)}
	boundary := site{name: "boundary", point: at(17.3850+0.22470, 78.4867)}
	outside := site{name: "outside", point: at(17.3850+0.2300, 78.4867)}
	near := site{name: "near", point: at(17.3900, 78.4900)}
	unknown := site{name: "unknown"}

	t.Run("filters to radius and sorts ascending", func(t *testing.T) {
		got := Nearby(ref, true, []site{inside, outside, near}, false)
		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].Item.name)
		assert.Equal(t, "inside", got[1].Item.name)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		dist := DistanceKm(ref, *boundary.point)
		require.LessOrEqual(t, dist, RadiusKm, "fixture must sit at or inside the boundary")

		got := Nearby(ref, true, []site{boundary}, false)
		assert.Len(t, got, 1)
	})

	t.Run("just past boundary is excluded", func(t *testing.T) {
		dist := DistanceKm(ref, *outside.point)
		require.Greater(t, dist, RadiusKm, "fixture must sit outside the boundary")

		got := Nearby(ref, true, []site{outside}, false)
		assert.Empty(t, got)
	})

	t.Run("unknown candidate included by default and sorts last", func(t *testing.T) {
		got := Nearby(ref, true, []site{unknown, near}, false)
		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].Item.name)
		assert.Equal(t, "unknown", got[1].Item.name)
		assert.True(t, got[1].Unknown())
	})

	t.Run("strict mode excludes unknown candidates", func(t *testing.T) {
		got := Nearby(ref, true, []site{unknown, near}, true)
		require.Len(t, got, 1)
		assert.Equal(t, "near", got[0].Item.name)
	})

	t.Run("unknown reference applies no filtering", func(t *testing.T) {
		got := Nearby(Point{}, false, []site{outside, unknown, near}, false)
		require.Len(t, got, 3)
		assert.Equal(t, "outside", got[0].Item.name)
		assert.True(t, got[0].Unknown())
	})

	t.Run("filter is idempotent on an unchanged input", func(t *testing.T) {
		input := []site{inside, outside, near, unknown}
		first := Nearby(ref, true, input, false)
		second := Nearby(ref, true, input, false)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Item.name, second[i].Item.name)
			assert.Equal(t, first[i].DistanceKm, second[i].DistanceKm)
		}
	})
}
