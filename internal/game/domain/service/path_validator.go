package service

import (
	"territory-run/internal/game/domain/model"

	"territory-run/internal/game/domain/geo"
	apperrors "territory-run/internal/shared/errors"
)

// DefaultMaxSpeedMS is the anti-cheat speed ceiling between consecutive path
// points: 15 m/s (~54 km/h) excludes vehicular travel while allowing running
// and cycling.
const DefaultMaxSpeedMS = 15.0

// PathValidator rejects GPS paths that imply impossible travel speed.
// Validation is all-or-nothing: a single violating segment invalidates the
// whole run.
type PathValidator struct {
	maxSpeedMS float64
}

// NewPathValidator creates a validator with the given speed ceiling in m/s.
// Non-positive values fall back to the default.
func NewPathValidator(maxSpeedMS float64) *PathValidator {
	if maxSpeedMS <= 0 {
		maxSpeedMS = DefaultMaxSpeedMS
	}
	return &PathValidator{maxSpeedMS: maxSpeedMS}
}

// MaxSpeedMS returns the configured ceiling.
func (v *PathValidator) MaxSpeedMS() float64 {
	return v.maxSpeedMS
}

// Validate checks every consecutive pair of path points. An empty path is
// rejected with its own error kind before any speed math runs. Pairs with a
// non-positive elapsed time are treated as simultaneous or duplicate samples
// and skipped, never failed. The first segment over the ceiling rejects the
// path with the segment index and the computed speed.
func (v *PathValidator) Validate(path []model.PathPoint) error {
	if len(path) == 0 {
		return apperrors.NewEmptyPathError()
	}

	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]

		dtMs := cur.T - prev.T
		if dtMs < 0 {
			dtMs = -dtMs
		}
		if dtMs <= 0 {
			continue
		}

		distM := geo.DistanceMeters(prev.Point(), cur.Point())
		speedMS := distM / (float64(dtMs) / 1000.0)
		if speedMS > v.maxSpeedMS {
			return apperrors.NewSpeedViolationError(i, speedMS, v.maxSpeedMS)
		}
	}

	return nil
}
