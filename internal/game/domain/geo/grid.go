package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Default grid parameters. The origin is a southwest-corner sentinel so that
// every valid coordinate maps to non-negative cell indices; the cell size
// approximates a 20 m tile side at the equator.
const (
	DefaultOriginLat      = -90.0
	DefaultOriginLng      = -180.0
	DefaultCellSizeDegLat = 0.00018
	DefaultCellSizeDegLng = 0.00018
)

// Cell addresses one grid tile by integer row/column. The pair is globally
// unique and deterministically derived from the grid origin and cell size;
// it is the unit of ownership.
type Cell struct {
	Row int `json:"row" bson:"row"`
	Col int `json:"col" bson:"col"`
}

// Less orders cells by (row, col) ascending, matching the tile store's
// range-query order.
func (c Cell) Less(other Cell) bool {
	if c.Row != other.Row {
		return c.Row < other.Row
	}
	return c.Col < other.Col
}

// GridConfig is the process-wide, read-only grid parameterization. It is
// passed explicitly to NewGrid rather than living in package globals.
type GridConfig struct {
	OriginLat      float64
	OriginLng      float64
	CellSizeDegLat float64
	CellSizeDegLng float64
}

// DefaultGridConfig returns the canonical lazy global grid parameters.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		OriginLat:      DefaultOriginLat,
		OriginLng:      DefaultOriginLng,
		CellSizeDegLat: DefaultCellSizeDegLat,
		CellSizeDegLng: DefaultCellSizeDegLng,
	}
}

// Grid maps between geographic coordinates and cell indices. Both mappings
// are pure and total; out-of-range coordinates are the caller's concern.
type Grid struct {
	cfg GridConfig
}

// NewGrid creates a grid index from an immutable configuration.
func NewGrid(cfg GridConfig) *Grid {
	if cfg.CellSizeDegLat <= 0 || cfg.CellSizeDegLng <= 0 {
		cfg = DefaultGridConfig()
	}
	return &Grid{cfg: cfg}
}

// Config returns the grid parameters.
func (g *Grid) Config() GridConfig {
	return g.cfg
}

// PointToCell maps a coordinate to its containing cell via floor division.
func (g *Grid) PointToCell(lat, lng float64) Cell {
	return Cell{
		Row: int(math.Floor((lat - g.cfg.OriginLat) / g.cfg.CellSizeDegLat)),
		Col: int(math.Floor((lng - g.cfg.OriginLng) / g.cfg.CellSizeDegLng)),
	}
}

// CellBounds returns the half-open bounding box of a cell: a point maps back
// into the box that PointToCell derived it from, i.e. minLat <= lat < maxLat
// and minLng <= lng < maxLng. Points landing exactly on a cell edge may fall
// either side of it by one float64 ulp; that tolerance is inherent to the
// floor-division mapping and accepted.
func (g *Grid) CellBounds(c Cell) orb.Bound {
	minLat := g.cfg.OriginLat + float64(c.Row)*g.cfg.CellSizeDegLat
	minLng := g.cfg.OriginLng + float64(c.Col)*g.cfg.CellSizeDegLng
	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{minLng + g.cfg.CellSizeDegLng, minLat + g.cfg.CellSizeDegLat},
	}
}

// CellRange maps a degree bounding box to the inclusive cell index ranges
// covering it. Used by the proximity query to translate a radius box into a
// tile-store range scan.
func (g *Grid) CellRange(minLat, minLng, maxLat, maxLng float64) (rowMin, rowMax, colMin, colMax int) {
	lo := g.PointToCell(minLat, minLng)
	hi := g.PointToCell(maxLat, maxLng)
	return lo.Row, hi.Row, lo.Col, hi.Col
}
