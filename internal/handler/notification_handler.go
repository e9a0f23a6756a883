package handler

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List - GET /notifications?limit=50
func (h *NotificationHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	list, err := h.notifications.List(c.Request().Context(), middleware.ActorFrom(c), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"notifications": list})
}

// MarkRead - POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.notifications.MarkRead(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
