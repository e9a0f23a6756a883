package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/middleware"
	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CourseHandler struct {
	courses  *service.CourseService
	validate *validator.Validate
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		validate: validator.New(),
	}
}

type createCourseRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
}

// Create - POST /courses
func (h *CourseHandler) Create(c echo.Context) error {
	var req createCourseRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperror.Validation("invalid request body"))
	}

	if err := h.validate.Struct(req); err != nil {
		return writeError(c, apperror.Validation("%v", err))
	}

	course, err := h.courses.CreateCourse(c.Request().Context(), middleware.ActorFrom(c), service.CreateCourseInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, course)
}

// Get - GET /courses/:id
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	course, err := h.courses.GetCourse(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, course)
}

// ListByTeacher - GET /teachers/:id/courses
func (h *CourseHandler) ListByTeacher(c echo.Context) error {
	teacherID, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	courses, err := h.courses.GetTeacherCourses(c.Request().Context(), teacherID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"courses": courses})
}
