package handler

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PayoutHandler struct {
	payouts  *service.PayoutService
	settings *service.SettingsService
	validate *validator.Validate
}

func NewPayoutHandler(payouts *service.PayoutService, settings *service.SettingsService) *PayoutHandler {
	return &PayoutHandler{
		payouts:  payouts,
		settings: settings,
		validate: validator.New(),
	}
}

type runPayoutRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// Run - POST /payouts/run: расчёт за произвольное окно по запросу администратора
func (h *PayoutHandler) Run(c echo.Context) error {
	actor := middleware.ActorFrom(c)
	if !actor.IsAdmin() {
		return writeError(c, apperror.Unauthorized("only admins can run payout calculation"))
	}

	var req runPayoutRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	payouts, err := h.payouts.RunPayoutCalculation(c.Request().Context(), req.StartDate, req.EndDate)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"payouts": payouts})
}

type payoutStatusRequest struct {
	Status    string  `json:"status" validate:"required"`
	Reference *string `json:"reference,omitempty"`
	ProofURL  *string `json:"proof_url,omitempty"`
}

// UpdateStatus - PATCH /payouts/:id/status
func (h *PayoutHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req payoutStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	payout, err := h.payouts.UpdatePayoutStatus(c.Request().Context(), middleware.ActorFrom(c), id, model.PayoutStatus(req.Status), req.Reference, req.ProofURL)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, payout)
}

// ListByTeacher - GET /teachers/:id/payouts
func (h *PayoutHandler) ListByTeacher(c echo.Context) error {
	teacherID, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	payouts, err := h.payouts.GetTeacherPayouts(c.Request().Context(), middleware.ActorFrom(c), teacherID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"payouts": payouts})
}

type serviceFeeRequest struct {
	Fee *float64 `json:"fee" validate:"required"`
}

// SetServiceFee - PUT /settings/service-fee
func (h *PayoutHandler) SetServiceFee(c echo.Context) error {
	var req serviceFeeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	if err := h.settings.SetServiceFeePercentage(c.Request().Context(), middleware.ActorFrom(c), *req.Fee); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
