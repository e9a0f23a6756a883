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

type BookingHandler struct {
	bookings *service.BookingService
	validate *validator.Validate
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		validate: validator.New(),
	}
}

type createBookingRequest struct {
	CourseID      int64       `json:"course_id" validate:"required,gt=0"`
	SessionDates  []time.Time `json:"session_dates" validate:"required,min=1"`
	PaymentMethod string      `json:"payment_method" validate:"required,oneof=full installment"`
	Installments  int         `json:"installments" validate:"omitempty,gte=2"`
	Phone         string      `json:"phone" validate:"omitempty,max=32"`
	Email         string      `json:"email" validate:"omitempty,email"`
}

// Create - POST /bookings
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), middleware.ActorFrom(c), service.CreateBookingInput{
		CourseID:        req.CourseID,
		SessionInstants: req.SessionDates,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		Installments:    req.Installments,
		StudentPhone:    req.Phone,
		StudentEmail:    req.Email,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, booking)
}

// Get - GET /bookings/:id
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	booking, err := h.bookings.GetBooking(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

// ListByStudent - GET /students/:id/bookings
func (h *BookingHandler) ListByStudent(c echo.Context) error {
	studentID, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	bookings, err := h.bookings.GetStudentBookings(c.Request().Context(), middleware.ActorFrom(c), studentID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// ListByTeacher - GET /teachers/:id/bookings
func (h *BookingHandler) ListByTeacher(c echo.Context) error {
	teacherID, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	bookings, err := h.bookings.GetTeacherBookings(c.Request().Context(), middleware.ActorFrom(c), teacherID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GetConversation - GET /bookings/:id/conversation
func (h *BookingHandler) GetConversation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	conv, err := h.bookings.GetConversation(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, conv)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus - PATCH /bookings/:id/status
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request().Context(), middleware.ActorFrom(c), id, model.BookingStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

// Delete - DELETE /bookings/:id
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.bookings.DeleteBooking(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type reportRequest struct {
	Report string `json:"report" validate:"required"`
}

// SubmitOverallReport - POST /bookings/:id/report
func (h *BookingHandler) SubmitOverallReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	if err := h.bookings.SubmitOverallReport(c.Request().Context(), middleware.ActorFrom(c), id, req.Report); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SubmitSessionReport - POST /sessions/:id/report
func (h *BookingHandler) SubmitSessionReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	if err := h.bookings.SubmitSessionReport(c.Request().Context(), middleware.ActorFrom(c), id, req.Report); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type attendanceRequest struct {
	Attended *bool `json:"attended" validate:"required"`
}

// MarkAttendance - POST /sessions/:id/attendance
func (h *BookingHandler) MarkAttendance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req attendanceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	if err := h.bookings.MarkStudentAttendance(c.Request().Context(), middleware.ActorFrom(c), id, *req.Attended); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
