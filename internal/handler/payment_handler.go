package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	payments *service.PaymentService
	validate *validator.Validate
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validator.New(),
	}
}

type paymentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus - PATCH /payments/:id/status
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req paymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	payment, err := h.payments.SetPaymentStatus(c.Request().Context(), middleware.ActorFrom(c), id, model.PaymentStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, payment)
}

// UploadProof - POST /payments/:id/proof (multipart)
func (h *PaymentHandler) UploadProof(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, apperror.Validation("file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, apperror.Validation("cannot read uploaded file"))
	}
	defer file.Close()

	url, err := h.payments.UploadProofOfPayment(c.Request().Context(), middleware.ActorFrom(c), id, fileHeader.Filename, file)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"proof_url": url})
}
