package model

import (
	"time"

	"territory-run/internal/game/domain/geo"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tile is one grid cell and the unit of ownership. Its identity is the
// (row, col) pair; the bounding box is derivable from the grid configuration
// and cached on the document for query convenience. Bounds never change
// after creation. Tiles are materialized lazily on first path intersection
// and never deleted; only OwnerID mutates, through the capture transaction.
type Tile struct {
	ObjectID  primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Row       int                `json:"row" bson:"row"`
	Col       int                `json:"col" bson:"col"`
	MinLat    float64            `json:"minLat" bson:"min_lat"`
	MinLng    float64            `json:"minLng" bson:"min_lng"`
	MaxLat    float64            `json:"maxLat" bson:"max_lat"`
	MaxLng    float64            `json:"maxLng" bson:"max_lng"`
	OwnerID   string             `json:"ownerId,omitempty" bson:"owner_id,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Cell returns the tile's grid identity.
func (t *Tile) Cell() geo.Cell {
	return geo.Cell{Row: t.Row, Col: t.Col}
}

// Bounds returns the cached bounding box as an orb.Bound.
func (t *Tile) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{t.MinLng, t.MinLat},
		Max: orb.Point{t.MaxLng, t.MaxLat},
	}
}

// Owned reports whether any user currently owns the tile.
func (t *Tile) Owned() bool {
	return t.OwnerID != ""
}
