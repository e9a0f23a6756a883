package router

import (
	"net/http"

	"github.com/Freeeeeet/tutor_marketplace/internal/handler"
	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/labstack/echo/v4"
)

// New собирает HTTP-роутер. Вся бизнес-логика живёт в сервисах,
// хендлеры только разбирают запрос и отображают ошибки.
func New(
	jwtSecret string,
	uploadDir string,
	courses *handler.CourseHandler,
	bookings *handler.BookingHandler,
	payments *handler.PaymentHandler,
	payouts *handler.PayoutHandler,
	availability *handler.AvailabilityHandler,
	notifications *handler.NotificationHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Загруженные файлы (подтверждения оплат, отчёты)
	e.Static("/files", uploadDir)

	api := e.Group("", middleware.Identity(jwtSecret))

	api.POST("/courses", courses.Create)
	api.GET("/courses/:id", courses.Get)
	api.GET("/teachers/:id/courses", courses.ListByTeacher)

	api.POST("/bookings", bookings.Create)
	api.GET("/bookings/:id", bookings.Get)
	api.PATCH("/bookings/:id/status", bookings.UpdateStatus)
	api.DELETE("/bookings/:id", bookings.Delete)
	api.POST("/bookings/:id/report", bookings.SubmitOverallReport)
	api.GET("/bookings/:id/conversation", bookings.GetConversation)
	api.GET("/students/:id/bookings", bookings.ListByStudent)
	api.GET("/teachers/:id/bookings", bookings.ListByTeacher)

	api.POST("/sessions/:id/report", bookings.SubmitSessionReport)
	api.POST("/sessions/:id/attendance", bookings.MarkAttendance)

	api.PATCH("/payments/:id/status", payments.UpdateStatus)
	api.POST("/payments/:id/proof", payments.UploadProof)

	api.POST("/payouts/run", payouts.Run)
	api.PATCH("/payouts/:id/status", payouts.UpdateStatus)
	api.GET("/teachers/:id/payouts", payouts.ListByTeacher)
	api.PUT("/settings/service-fee", payouts.SetServiceFee)

	api.GET("/teachers/:id/unavailable", availability.ListUnavailable)
	api.POST("/unavailable", availability.Block)
	api.DELETE("/unavailable/:id", availability.Unblock)

	api.GET("/notifications", notifications.List)
	api.POST("/notifications/:id/read", notifications.MarkRead)

	return e
}
