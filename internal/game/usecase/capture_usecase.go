package usecase

import (
	"context"
	"sort"
	"time"

	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/game/domain/service"
	"territory-run/internal/shared/eventbus"
	apperrors "territory-run/internal/shared/errors"
	"territory-run/internal/shared/logger"
)

// CaptureUseCase is the capture transaction: validate a submitted path, map
// it to tiles, transfer ownership and record the run.
type CaptureUseCase interface {
	// SubmitRun runs the full capture transaction for a user's GPS path.
	// Validation is all-or-nothing: a rejected path claims no tiles and
	// records no run. Claims are atomic per tile, not per run; if the store
	// fails midway the already transferred tiles keep their new owner and no
	// rollback is attempted.
	SubmitRun(ctx context.Context, userID string, path []model.PathPoint) (*model.CaptureResult, error)

	// GetRun returns a previously recorded run.
	GetRun(ctx context.Context, id string) (*model.Run, error)

	// ListUserRuns returns the user's most recent runs, newest first.
	ListUserRuns(ctx context.Context, userID string, limit int) ([]model.Run, error)
}

// DispossessedEvent is the payload published when a capture strips tiles from
// previous owners.
type DispossessedEvent struct {
	ByUserID string   `json:"byUserId"`
	OwnerIDs []string `json:"ownerIds"`
}

const defaultRunListLimit = 50

type captureUseCase struct {
	grid      *geo.Grid
	validator *service.PathValidator
	tiles     repository.TileStore
	runs      repository.RunRepository
	bus       eventbus.EventBusInterface
	log       logger.Logger
}

// NewCaptureUseCase wires the capture transaction.
func NewCaptureUseCase(
	grid *geo.Grid,
	validator *service.PathValidator,
	tiles repository.TileStore,
	runs repository.RunRepository,
	bus eventbus.EventBusInterface,
	log logger.Logger,
) CaptureUseCase {
	return &captureUseCase{
		grid:      grid,
		validator: validator,
		tiles:     tiles,
		runs:      runs,
		bus:       bus,
		log:       log.WithComponent("capture-usecase"),
	}
}

func (uc *captureUseCase) SubmitRun(ctx context.Context, userID string, path []model.PathPoint) (*model.CaptureResult, error) {
	log := uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id":    userID,
		"path_count": len(path),
	})

	if err := uc.validator.Validate(path); err != nil {
		log.Warnf("Run rejected: %v", err)
		return nil, err
	}

	cells := uc.distinctCells(path)
	run := model.NewRun(userID, path)

	// Claim tiles one by one. Each claim is atomic and final; a failure here
	// leaves earlier claims in place.
	dispossessed := make(map[string]struct{})
	claimed := make([]geo.Cell, 0, len(cells))
	for _, cell := range cells {
		prevOwner, err := uc.tiles.UpsertClaim(ctx, cell, uc.grid.CellBounds(cell), userID)
		if err != nil {
			log.Errorf("Claim failed at cell (%d,%d) after %d of %d tiles: %v",
				cell.Row, cell.Col, len(claimed), len(cells), err)
			return nil, err
		}
		claimed = append(claimed, cell)
		if prevOwner != "" && prevOwner != userID {
			dispossessed[prevOwner] = struct{}{}
		}
	}

	if err := uc.runs.Create(ctx, run); err != nil {
		log.Errorf("Run record not persisted, tile ownership already transferred: %v", err)
		return nil, err
	}

	result := &model.CaptureResult{
		RunID:              run.ID,
		UserID:             userID,
		CapturedCells:      claimed,
		CapturedTileCount:  len(claimed),
		DispossessedOwners: sortedKeys(dispossessed),
	}

	log.WithFields(map[string]interface{}{
		"run_id":       run.ID,
		"tile_count":   result.CapturedTileCount,
		"dispossessed": len(result.DispossessedOwners),
	}).Info("Capture transaction completed")

	uc.publishCaptureEvents(ctx, result)
	return result, nil
}

// publishCaptureEvents fans the outcome out to observers. Fire-and-forget:
// a failing subscriber never affects the already committed capture.
func (uc *captureUseCase) publishCaptureEvents(ctx context.Context, result *model.CaptureResult) {
	event := model.CaptureEvent{
		UserID:     result.UserID,
		TileCount:  result.CapturedTileCount,
		OccurredAt: time.Now().UTC(),
	}
	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
		eventbus.EventTypeTilesCaptured, event, "capture-usecase"))

	if len(result.DispossessedOwners) > 0 {
		uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
			eventbus.EventTypeOwnersDispossessed, DispossessedEvent{
				ByUserID: result.UserID,
				OwnerIDs: result.DispossessedOwners,
			}, "capture-usecase"))
	}

	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
		eventbus.EventTypeRunRecorded, result, "capture-usecase"))
}

// distinctCells maps the path to its covered cells, deduplicated, preserving
// first-touch order. A tile crossed twice in one run is claimed once.
func (uc *captureUseCase) distinctCells(path []model.PathPoint) []geo.Cell {
	seen := make(map[geo.Cell]struct{}, len(path))
	cells := make([]geo.Cell, 0, len(path))
	for _, p := range path {
		cell := uc.grid.PointToCell(p.Lat, p.Lng)
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}
		cells = append(cells, cell)
	}
	return cells
}

func (uc *captureUseCase) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("run id is required")
	}
	return uc.runs.GetByID(ctx, id)
}

func (uc *captureUseCase) ListUserRuns(ctx context.Context, userID string, limit int) ([]model.Run, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	return uc.runs.ListByUser(ctx, userID, limit)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
