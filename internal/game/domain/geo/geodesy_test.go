package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_IdenticalPoints(t *testing.T) {
	p := orb.Point{135.0, 34.7}
	assert.Equal(t, 0.0, DistanceMeters(p, p))
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// 0.00009 deg of longitude at the equator is very close to 10 m.
	a := orb.Point{0, 0}
	b := orb.Point{0.00009, 0}
	d := DistanceMeters(a, b)
	assert.InDelta(t, 10.0, d, 0.1)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := orb.Point{-122.4194, 37.7749}
	b := orb.Point{-122.4, 37.8}
	assert.InDelta(t, DistanceMeters(a, b), DistanceMeters(b, a), 1e-9)
}

func TestDistanceMeters_NeverNegative(t *testing.T) {
	// Near-identical points must not go negative through floating error.
	a := orb.Point{10.0000000001, 50.0000000001}
	b := orb.Point{10.0, 50.0}
	assert.GreaterOrEqual(t, DistanceMeters(a, b), 0.0)
}

func TestDegreesPerKmLat_Constant(t *testing.T) {
	assert.InDelta(t, 1.0/111.0, DegreesPerKmLat(), 1e-12)
}

func TestDegreesPerKmLng_GrowsTowardPoles(t *testing.T) {
	equator := DegreesPerKmLng(0)
	mid := DegreesPerKmLng(60)
	assert.InDelta(t, 1.0/111.0, equator, 1e-9)
	// cos(60°) = 0.5, so one km spans twice the longitude degrees.
	assert.InDelta(t, 2.0/111.0, mid, 1e-6)
	assert.Greater(t, mid, equator)
}

func TestDegreesPerKmLng_FiniteAtPole(t *testing.T) {
	d := DegreesPerKmLng(90)
	assert.False(t, math.IsInf(d, 1))
	assert.False(t, math.IsNaN(d))
	assert.Greater(t, d, 0.0)
}

func TestPathDistanceMeters_ShortPaths(t *testing.T) {
	assert.Equal(t, 0.0, PathDistanceMeters(nil))
	assert.Equal(t, 0.0, PathDistanceMeters([]orb.Point{{0, 0}}))
}

func TestPathDistanceMeters_SymmetricUnderReversal(t *testing.T) {
	path := []orb.Point{
		{135.5, 34.7},
		{135.51, 34.71},
		{135.52, 34.705},
		{135.53, 34.72},
	}
	reversed := make([]orb.Point, len(path))
	for i, p := range path {
		reversed[len(path)-1-i] = p
	}
	assert.InDelta(t, PathDistanceMeters(path), PathDistanceMeters(reversed), 1e-9)
}
