package http

import (
	"errors"

	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/usecase"
	apperrors "territory-run/internal/shared/errors"
	"territory-run/internal/shared/logger"
	"territory-run/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// RunHandler handles HTTP requests for run submission and history.
type RunHandler struct {
	capture usecase.CaptureUseCase
	log     logger.Logger
}

// NewRunHandler creates the run HTTP handler.
func NewRunHandler(capture usecase.CaptureUseCase, log logger.Logger) *RunHandler {
	return &RunHandler{
		capture: capture,
		log:     log.WithComponent("run-handler"),
	}
}

// RegisterRoutes mounts the run endpoints on a router that already carries
// the auth middleware.
func (h *RunHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/runs", h.SubmitRun)
	router.Get("/runs/me", h.ListMyRuns)
	router.Get("/runs/:runId", h.GetRun)
}

type submitRunRequest struct {
	Path []model.PathPoint `json:"path"`
}

// SubmitRun handles POST /runs: the full capture transaction.
func (h *RunHandler) SubmitRun(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req submitRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.capture.SubmitRun(c.UserContext(), userID, req.Path)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListMyRuns handles GET /runs/me: the caller's run history, newest first.
func (h *RunHandler) ListMyRuns(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 0)
	runs, err := h.capture.ListUserRuns(c.UserContext(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"total": len(runs),
	})
}

// GetRun handles GET /runs/:runId.
func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.capture.GetRun(c.UserContext(), c.Params("runId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(run)
}

// writeError maps domain errors to HTTP responses. AppErrors carry their own
// status code; bare sentinels get a sensible default.
func writeError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body := fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		return c.Status(appErr.HTTPCode).JSON(body)
	}

	switch {
	case errors.Is(err, apperrors.ErrRunNotFound), errors.Is(err, apperrors.ErrTileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage temporarily unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
