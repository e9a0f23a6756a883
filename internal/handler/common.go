package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/labstack/echo/v4"
)

// writeError отображает kind бизнес-ошибки в HTTP-статус
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperror.KindUnauthorized:
		status = http.StatusForbidden
		message = err.Error()
	case apperror.KindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case apperror.KindInvalidState, apperror.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	}

	return c.JSON(status, echo.Map{"error": message})
}

// parseID читает int64-параметр пути
func parseID(c echo.Context, name string) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).Int64(name, &id).BindError(); err != nil || id <= 0 {
		return 0, apperror.Validation("invalid %s", name)
	}
	return id, nil
}
