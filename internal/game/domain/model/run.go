package model

import (
	"time"

	"territory-run/internal/game/domain/geo"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// PathPoint is one GPS sample of a run: latitude, longitude and the client
// timestamp in epoch milliseconds.
type PathPoint struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
	T   int64   `json:"t" bson:"t"`
}

// Point returns the sample as an orb point (lon, lat order).
func (p PathPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Run is one recorded GPS path submitted by a user. Immutable once
// persisted: the capture side effect is recorded exactly once at creation
// time and a run never changes tile ownership retroactively.
type Run struct {
	ID        string      `json:"id" bson:"id"`
	UserID    string      `json:"userId" bson:"user_id"`
	Path      []PathPoint `json:"path" bson:"path"`
	DistanceM float64     `json:"distanceM" bson:"distance_m"`
	StartedAt time.Time   `json:"startedAt" bson:"started_at"`
	EndedAt   time.Time   `json:"endedAt" bson:"ended_at"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

// NewRun builds a run record for a non-empty path. StartedAt and EndedAt
// derive from the first and last point timestamps.
func NewRun(userID string, path []PathPoint) *Run {
	now := time.Now().UTC()
	run := &Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		Path:      path,
		CreatedAt: now,
	}
	if len(path) > 0 {
		run.StartedAt = time.UnixMilli(path[0].T).UTC()
		run.EndedAt = time.UnixMilli(path[len(path)-1].T).UTC()
		run.DistanceM = geo.PathDistanceMeters(run.Points())
	}
	return run
}

// Points returns the path as orb points for geodesy math.
func (r *Run) Points() []orb.Point {
	points := make([]orb.Point, len(r.Path))
	for i, p := range r.Path {
		points[i] = p.Point()
	}
	return points
}
