package geo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_PointToCell_Origin(t *testing.T) {
	g := NewGrid(DefaultGridConfig())
	c := g.PointToCell(DefaultOriginLat, DefaultOriginLng)
	assert.Equal(t, Cell{Row: 0, Col: 0}, c)
}

func TestGrid_PointToCell_Deterministic(t *testing.T) {
	g := NewGrid(DefaultGridConfig())
	a := g.PointToCell(34.7, 135.5)
	b := g.PointToCell(34.7, 135.5)
	assert.Equal(t, a, b)
}

func TestGrid_PointToCell_TotalForOutOfRangeCoordinates(t *testing.T) {
	// No validation here; range checks belong to callers.
	g := NewGrid(DefaultGridConfig())
	assert.NotPanics(t, func() {
		g.PointToCell(200, 500)
		g.PointToCell(-200, -500)
	})
}

func TestGrid_CellBounds_RoundTripProperty(t *testing.T) {
	g := NewGrid(DefaultGridConfig())
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		lat := rng.Float64()*180 - 90
		lng := rng.Float64()*360 - 180

		cell := g.PointToCell(lat, lng)
		bounds := g.CellBounds(cell)

		// Half-open box contains the original point. Random doubles do not
		// land exactly on cell edges, so the documented one-ulp boundary
		// tolerance does not kick in here.
		require.LessOrEqual(t, bounds.Min.Lat(), lat, "minLat <= lat for (%f,%f)", lat, lng)
		require.Less(t, lat, bounds.Max.Lat(), "lat < maxLat for (%f,%f)", lat, lng)
		require.LessOrEqual(t, bounds.Min.Lon(), lng, "minLng <= lng for (%f,%f)", lat, lng)
		require.Less(t, lng, bounds.Max.Lon(), "lng < maxLng for (%f,%f)", lat, lng)
	}
}

func TestGrid_CellBounds_SizeMatchesConfig(t *testing.T) {
	cfg := DefaultGridConfig()
	g := NewGrid(cfg)
	b := g.CellBounds(Cell{Row: 1000, Col: 2000})
	assert.InDelta(t, cfg.CellSizeDegLat, b.Max.Lat()-b.Min.Lat(), 1e-12)
	assert.InDelta(t, cfg.CellSizeDegLng, b.Max.Lon()-b.Min.Lon(), 1e-12)
}

func TestGrid_CellRange_CoversBox(t *testing.T) {
	g := NewGrid(DefaultGridConfig())
	rowMin, rowMax, colMin, colMax := g.CellRange(34.70, 135.50, 34.71, 135.52)
	assert.LessOrEqual(t, rowMin, rowMax)
	assert.LessOrEqual(t, colMin, colMax)

	lo := g.PointToCell(34.70, 135.50)
	hi := g.PointToCell(34.71, 135.52)
	assert.Equal(t, lo.Row, rowMin)
	assert.Equal(t, hi.Col, colMax)
}

func TestNewGrid_RejectsNonPositiveCellSize(t *testing.T) {
	g := NewGrid(GridConfig{CellSizeDegLat: 0, CellSizeDegLng: 0})
	assert.Equal(t, DefaultGridConfig(), g.Config())
}

func TestCell_Less(t *testing.T) {
	assert.True(t, Cell{1, 5}.Less(Cell{2, 0}))
	assert.True(t, Cell{1, 5}.Less(Cell{1, 6}))
	assert.False(t, Cell{1, 5}.Less(Cell{1, 5}))
}
