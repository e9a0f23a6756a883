package handler

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AvailabilityHandler struct {
	availability *service.AvailabilityService
	validate     *validator.Validate
}

func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		validate:     validator.New(),
	}
}

// ListUnavailable - GET /teachers/:id/unavailable
func (h *AvailabilityHandler) ListUnavailable(c echo.Context) error {
	teacherID, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	dates, err := h.availability.GetUnavailableSlots(c.Request().Context(), teacherID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"unavailable_dates": dates})
}

type blockDateRequest struct {
	BlockedAt time.Time `json:"blocked_at" validate:"required"`
	TeacherID int64     `json:"teacher_id" validate:"omitempty,gt=0"` // только для администратора
}

// Block - POST /unavailable
func (h *AvailabilityHandler) Block(c echo.Context) error {
	var req blockDateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	date, err := h.availability.AddUnavailableDate(c.Request().Context(), middleware.ActorFrom(c), req.TeacherID, req.BlockedAt)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, date)
}

// Unblock - DELETE /unavailable/:id
func (h *AvailabilityHandler) Unblock(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.availability.RemoveUnavailableDate(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
