package service

import (
	"context"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"go.uber.org/zap"
)

type CourseService struct {
	courseRepo *repository.CourseRepository
	logger     *zap.Logger
}

func NewCourseService(courseRepo *repository.CourseRepository, logger *zap.Logger) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		logger:     logger,
	}
}

type CreateCourseInput struct {
	Name        string
	Description string
	Price       int64 // за одно занятие, в минимальных единицах
}

// CreateCourse создаёт курс. Учитель создаёт курсы только на себя.
func (s *CourseService) CreateCourse(ctx context.Context, actor model.Actor, in CreateCourseInput) (*model.Course, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return nil, apperror.Unauthorized("only teachers can create courses")
	}

	if in.Name == "" {
		return nil, apperror.Validation("course name must not be empty")
	}

	if in.Price <= 0 {
		return nil, apperror.Validation("course price must be positive")
	}

	course := &model.Course{
		TeacherID:   actor.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    true,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, apperror.Internal(err, "create course")
	}

	s.logger.Info("Course created",
		zap.Int64("course_id", course.ID),
		zap.Int64("teacher_id", actor.ID),
		zap.Int64("price", course.Price),
	)

	return course, nil
}

// GetCourse возвращает курс по ID
func (s *CourseService) GetCourse(ctx context.Context, courseID int64) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, apperror.Internal(err, "get course")
	}

	if course == nil {
		return nil, apperror.NotFound("course %d not found", courseID)
	}

	return course, nil
}

// GetTeacherCourses возвращает курсы учителя. Каталог открыт всем авторизованным.
func (s *CourseService) GetTeacherCourses(ctx context.Context, teacherID int64) ([]*model.Course, error) {
	return s.courseRepo.GetByTeacherID(ctx, teacherID)
}
