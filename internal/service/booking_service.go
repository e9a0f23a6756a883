package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// txBeginner открывает транзакции (в проде - пул соединений)
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// notifySink доставляет уведомления после коммита
type notifySink interface {
	Notify(recipientID int64, content, link string)
}

type userStore interface {
	GetAdmins(ctx context.Context) ([]*model.User, error)
	UpdateContactTx(ctx context.Context, q base.Querier, id int64, phone, email string) error
}

type courseStore interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
}

type bookingStore interface {
	CreateTx(ctx context.Context, q base.Querier, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.Booking, error)
	UpdateStatusTx(ctx context.Context, q base.Querier, id int64, status model.BookingStatus) error
	SetCompletionDateTx(ctx context.Context, q base.Querier, id int64, completedAt time.Time) error
	SetOverallReportTx(ctx context.Context, q base.Querier, id int64, report string) error
	Delete(ctx context.Context, id int64) error
}

type bookingSessionStore interface {
	CreateBatchTx(ctx context.Context, q base.Querier, sessions []*model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Session, error)
	CompleteWithReport(ctx context.Context, id int64, report string, completedAt time.Time) error
	SetAttendance(ctx context.Context, id int64, attended bool) error
}

type bookingPaymentStore interface {
	CreateBatchTx(ctx context.Context, q base.Querier, payments []*model.Payment) error
	GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Payment, error)
	HasPaid(ctx context.Context, bookingID int64) (bool, error)
}

type conversationStore interface {
	CreateIfAbsentTx(ctx context.Context, q base.Querier, conv *model.Conversation) error
	GetByBookingID(ctx context.Context, bookingID int64) (*model.Conversation, error)
}

type BookingService struct {
	pool             txBeginner
	userRepo         userStore
	courseRepo       courseStore
	bookingRepo      bookingStore
	sessionRepo      bookingSessionStore
	paymentRepo      bookingPaymentStore
	conversationRepo conversationStore
	availability     *AvailabilityService
	notifier         notifySink
	logger           *zap.Logger
}

func NewBookingService(
	pool txBeginner,
	userRepo userStore,
	courseRepo courseStore,
	bookingRepo bookingStore,
	sessionRepo bookingSessionStore,
	paymentRepo bookingPaymentStore,
	conversationRepo conversationStore,
	availability *AvailabilityService,
	notifier notifySink,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		pool:             pool,
		userRepo:         userRepo,
		courseRepo:       courseRepo,
		bookingRepo:      bookingRepo,
		sessionRepo:      sessionRepo,
		paymentRepo:      paymentRepo,
		conversationRepo: conversationRepo,
		availability:     availability,
		notifier:         notifier,
		logger:           logger,
	}
}

type CreateBookingInput struct {
	CourseID        int64
	SessionInstants []time.Time
	PaymentMethod   model.PaymentMethod
	Installments    int    // только при рассрочке
	StudentPhone    string // опциональное обновление контактов
	StudentEmail    string
}

// CreateBooking создаёт бронирование с занятиями и платежами одной транзакцией.
// При любом конфликте расписания отклоняется всё бронирование целиком.
func (s *BookingService) CreateBooking(ctx context.Context, actor model.Actor, in CreateBookingInput) (*model.Booking, error) {
	if !actor.IsStudent() {
		return nil, apperror.Unauthorized("only students can create bookings")
	}

	sessionCount := len(in.SessionInstants)
	if !model.AllowedSessionCounts[sessionCount] {
		return nil, apperror.Validation("session count must be 6, 12 or 24, got %d", sessionCount)
	}

	if err := validateInstants(in.SessionInstants); err != nil {
		return nil, err
	}

	installments := 1
	switch in.PaymentMethod {
	case model.PaymentMethodFull:
	case model.PaymentMethodInstallment:
		if in.Installments < 2 || in.Installments > sessionCount {
			return nil, apperror.Validation("installments must be between 2 and %d, got %d", sessionCount, in.Installments)
		}
		installments = in.Installments
	default:
		return nil, apperror.Validation("unknown payment method %q", in.PaymentMethod)
	}

	course, err := s.courseRepo.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, apperror.Internal(err, "get course")
	}

	if course == nil {
		return nil, apperror.NotFound("course %d not found", in.CourseID)
	}

	if !course.IsActive {
		return nil, apperror.InvalidState("course %d is not active", in.CourseID)
	}

	// Проверяем все моменты, при конфликте отклоняем всё бронирование
	conflict, err := s.availability.FindConflicts(ctx, course.TeacherID, in.SessionInstants)
	if err != nil {
		return nil, apperror.Internal(err, "check availability")
	}

	if conflict != nil {
		return nil, apperror.Conflict("%s: %s", conflict.Instant.Format(time.RFC3339), conflict.Reason)
	}

	booking := &model.Booking{
		StudentID:         actor.ID,
		CourseID:          course.ID,
		Status:            model.BookingStatusPending,
		PaymentMethod:     in.PaymentMethod,
		TotalInstallments: installments,
		PricePerSession:   course.Price, // снимок цены, дальнейшие изменения курса брони не касаются
		TotalAmount:       course.Price * int64(sessionCount),
	}

	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if in.StudentPhone != "" || in.StudentEmail != "" {
		if err := s.userRepo.UpdateContactTx(ctx, tx, actor.ID, in.StudentPhone, in.StudentEmail); err != nil {
			return nil, apperror.Internal(err, "update student contact")
		}
	}

	if err := s.bookingRepo.CreateTx(ctx, tx, booking); err != nil {
		return nil, apperror.Internal(err, "create booking")
	}

	sessions := make([]*model.Session, 0, sessionCount)
	for _, instant := range in.SessionInstants {
		sessions = append(sessions, &model.Session{
			BookingID:   booking.ID,
			SessionDate: instant,
			Status:      model.SessionStatusScheduled,
			IsUnlocked:  false,
		})
	}

	if err := s.sessionRepo.CreateBatchTx(ctx, tx, sessions); err != nil {
		return nil, apperror.Internal(err, "create sessions")
	}

	amounts := model.SplitInstallments(booking.TotalAmount, installments)
	payments := make([]*model.Payment, 0, installments)
	for i, amount := range amounts {
		payments = append(payments, &model.Payment{
			BookingID:         booking.ID,
			InstallmentNumber: i + 1,
			Amount:            amount,
			Status:            model.PaymentStatusPending,
		})
	}

	if err := s.paymentRepo.CreateBatchTx(ctx, tx, payments); err != nil {
		return nil, apperror.Internal(err, "create payments")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.Internal(err, "commit transaction")
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", actor.ID),
		zap.Int64("course_id", course.ID),
		zap.Int("sessions", sessionCount),
		zap.String("payment_method", string(in.PaymentMethod)),
		zap.Int("installments", installments),
	)

	booking.Sessions = sessions
	booking.Payments = payments
	booking.Course = course

	// Уведомления только после коммита
	link := fmt.Sprintf("/bookings/%d", booking.ID)
	s.notifier.Notify(course.TeacherID, fmt.Sprintf("New booking request for course %q", course.Name), link)
	s.notifyAdmins(ctx, fmt.Sprintf("New booking #%d created", booking.ID), link)

	return booking, nil
}

// validateInstants проверяет что моменты занятий уникальны и в будущем
func validateInstants(instants []time.Time) error {
	seen := make(map[int64]bool, len(instants))
	now := time.Now()

	for _, t := range instants {
		if t.IsZero() {
			return apperror.Validation("session date must be set")
		}
		if !t.After(now) {
			return apperror.Validation("session date %s is in the past", t.Format(time.RFC3339))
		}
		if seen[t.UnixNano()] {
			return apperror.Validation("duplicate session date %s", t.Format(time.RFC3339))
		}
		seen[t.UnixNano()] = true
	}

	return nil
}

func (s *BookingService) notifyAdmins(ctx context.Context, content, link string) {
	admins, err := s.userRepo.GetAdmins(ctx)
	if err != nil {
		s.logger.Error("Failed to get admins for notification", zap.Error(err))
		return
	}

	for _, admin := range admins {
		s.notifier.Notify(admin.ID, content, link)
	}
}

// UpdateBookingStatus переводит бронирование в новый статус с учётом роли инициатора
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor model.Actor, bookingID int64, newStatus model.BookingStatus) (*model.Booking, error) {
	if !model.ValidBookingStatus(newStatus) {
		return nil, apperror.Validation("unknown booking status %q", newStatus)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return nil, apperror.NotFound("booking %d not found", bookingID)
	}

	course, err := s.courseRepo.GetByID(ctx, booking.CourseID)
	if err != nil {
		return nil, apperror.Internal(err, "get course")
	}

	// Студент распоряжается только своей бронью, учитель - бронью на свой курс
	switch actor.Role {
	case model.RoleStudent:
		if booking.StudentID != actor.ID {
			return nil, apperror.Unauthorized("booking belongs to another student")
		}
	case model.RoleTeacher:
		if course == nil || course.TeacherID != actor.ID {
			return nil, apperror.Unauthorized("booking belongs to another teacher's course")
		}
	}

	if !booking.CanTransitionBy(actor, newStatus) {
		return nil, apperror.InvalidState("cannot move booking from %s to %s as %s", booking.Status, newStatus, actor.Role)
	}

	// Отмена невозможна когда деньги уже приняты
	if newStatus == model.BookingStatusCancelled {
		paid, err := s.paymentRepo.HasPaid(ctx, bookingID)
		if err != nil {
			return nil, apperror.Internal(err, "check paid payments")
		}
		if paid {
			return nil, apperror.Conflict("booking %d has paid payments and cannot be cancelled", bookingID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, newStatus); err != nil {
		return nil, apperror.Internal(err, "update booking status")
	}

	// Подтверждение лениво создаёт чат между студентом и учителем
	if newStatus == model.BookingStatusConfirmed && course != nil {
		conv := &model.Conversation{
			BookingID: bookingID,
			StudentID: booking.StudentID,
			TeacherID: course.TeacherID,
		}
		if err := s.conversationRepo.CreateIfAbsentTx(ctx, tx, conv); err != nil {
			return nil, apperror.Internal(err, "create conversation")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.Internal(err, "commit transaction")
	}

	s.logger.Info("Booking status updated",
		zap.Int64("booking_id", bookingID),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(newStatus)),
		zap.Int64("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)

	booking.Status = newStatus

	link := fmt.Sprintf("/bookings/%d", bookingID)
	switch newStatus {
	case model.BookingStatusConfirmed:
		s.notifier.Notify(booking.StudentID, "Your booking has been confirmed", link)
	case model.BookingStatusCancelled:
		s.notifier.Notify(booking.StudentID, "Your booking has been cancelled", link)
	}

	return booking, nil
}

// SubmitOverallReport завершает курс: все занятия должны быть завершены.
// Дата завершения выставляется один раз, повторная подача её не перезаписывает.
func (s *BookingService) SubmitOverallReport(ctx context.Context, actor model.Actor, bookingID int64, report string) error {
	if report == "" {
		return apperror.Validation("report must not be empty")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return apperror.NotFound("booking %d not found", bookingID)
	}

	// Отменённую бронь завершить нельзя, завершённую - нельзя завершить повторно
	switch booking.Status {
	case model.BookingStatusCancelled:
		return apperror.InvalidState("booking %d is cancelled", bookingID)
	case model.BookingStatusCompleted:
		return apperror.InvalidState("booking %d is already completed", bookingID)
	}

	course, err := s.courseRepo.GetByID(ctx, booking.CourseID)
	if err != nil {
		return apperror.Internal(err, "get course")
	}

	if !actor.IsAdmin() && (course == nil || course.TeacherID != actor.ID) {
		return apperror.Unauthorized("only the course teacher can submit the overall report")
	}

	sessions, err := s.sessionRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return apperror.Internal(err, "get sessions")
	}

	for _, session := range sessions {
		if session.Status != model.SessionStatusCompleted {
			return apperror.InvalidState("session %d is not completed yet", session.ID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.Internal(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, model.BookingStatusCompleted); err != nil {
		return apperror.Internal(err, "update booking status")
	}

	if err := s.bookingRepo.SetCompletionDateTx(ctx, tx, bookingID, time.Now()); err != nil {
		return apperror.Internal(err, "set completion date")
	}

	if err := s.bookingRepo.SetOverallReportTx(ctx, tx, bookingID, report); err != nil {
		return apperror.Internal(err, "set overall report")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.Internal(err, "commit transaction")
	}

	s.logger.Info("Course completed",
		zap.Int64("booking_id", bookingID),
		zap.Int64("teacher_id", actor.ID),
	)

	s.notifier.Notify(booking.StudentID, "Your course has been completed", fmt.Sprintf("/bookings/%d", bookingID))

	return nil
}

// SubmitSessionReport сохраняет отчёт учителя и помечает занятие завершённым
func (s *BookingService) SubmitSessionReport(ctx context.Context, actor model.Actor, sessionID int64, report string) error {
	if report == "" {
		return apperror.Validation("report must not be empty")
	}

	session, booking, course, err := s.getSessionContext(ctx, sessionID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && course.TeacherID != actor.ID {
		return apperror.Unauthorized("only the course teacher can report on this session")
	}

	if !session.IsUnlocked {
		return apperror.InvalidState("session %d is locked until payment", sessionID)
	}

	if session.Status != model.SessionStatusScheduled {
		return apperror.InvalidState("session %d is already completed", sessionID)
	}

	if err := s.sessionRepo.CompleteWithReport(ctx, sessionID, report, time.Now()); err != nil {
		return apperror.Internal(err, "complete session")
	}

	s.logger.Info("Session report submitted",
		zap.Int64("session_id", sessionID),
		zap.Int64("booking_id", booking.ID),
		zap.Int64("teacher_id", actor.ID),
	)

	return nil
}

// MarkStudentAttendance сохраняет отметку о посещении.
// Доступно только студенту брони, пока занятие открыто и ещё не завершено.
func (s *BookingService) MarkStudentAttendance(ctx context.Context, actor model.Actor, sessionID int64, attended bool) error {
	session, booking, _, err := s.getSessionContext(ctx, sessionID)
	if err != nil {
		return err
	}

	if booking.StudentID != actor.ID {
		return apperror.Unauthorized("session belongs to another student")
	}

	if !session.IsUnlocked {
		return apperror.InvalidState("session %d is locked until payment", sessionID)
	}

	if session.Status != model.SessionStatusScheduled {
		return apperror.InvalidState("session %d is already completed", sessionID)
	}

	if err := s.sessionRepo.SetAttendance(ctx, sessionID, attended); err != nil {
		return apperror.Internal(err, "set attendance")
	}

	return nil
}

// DeleteBooking удаляет бронирование вместе с занятиями и платежами.
// Студент может удалить только свою ожидающую бронь без оплаченных платежей.
func (s *BookingService) DeleteBooking(ctx context.Context, actor model.Actor, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return apperror.NotFound("booking %d not found", bookingID)
	}

	if !actor.IsAdmin() {
		if booking.StudentID != actor.ID {
			return apperror.Unauthorized("booking belongs to another student")
		}
		if booking.Status != model.BookingStatusPending {
			return apperror.InvalidState("only pending bookings can be deleted")
		}
		paid, err := s.paymentRepo.HasPaid(ctx, bookingID)
		if err != nil {
			return apperror.Internal(err, "check paid payments")
		}
		if paid {
			return apperror.Conflict("booking %d has paid payments", bookingID)
		}
	}

	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		return apperror.Internal(err, "delete booking")
	}

	s.logger.Info("Booking deleted",
		zap.Int64("booking_id", bookingID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// GetBooking возвращает бронирование с занятиями и платежами
func (s *BookingService) GetBooking(ctx context.Context, actor model.Actor, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return nil, apperror.NotFound("booking %d not found", bookingID)
	}

	course, err := s.courseRepo.GetByID(ctx, booking.CourseID)
	if err != nil {
		return nil, apperror.Internal(err, "get course")
	}

	if !actor.IsAdmin() && booking.StudentID != actor.ID &&
		(course == nil || course.TeacherID != actor.ID) {
		return nil, apperror.Unauthorized("no access to this booking")
	}

	booking.Course = course

	booking.Sessions, err = s.sessionRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get sessions")
	}

	booking.Payments, err = s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get payments")
	}

	return booking, nil
}

// GetStudentBookings возвращает бронирования студента
func (s *BookingService) GetStudentBookings(ctx context.Context, actor model.Actor, studentID int64) ([]*model.Booking, error) {
	if !actor.IsAdmin() && actor.ID != studentID {
		return nil, apperror.Unauthorized("no access to another student's bookings")
	}

	return s.bookingRepo.GetByStudentID(ctx, studentID)
}

// GetTeacherBookings возвращает бронирования на курсы учителя
func (s *BookingService) GetTeacherBookings(ctx context.Context, actor model.Actor, teacherID int64) ([]*model.Booking, error) {
	if !actor.IsAdmin() && actor.ID != teacherID {
		return nil, apperror.Unauthorized("no access to another teacher's bookings")
	}

	return s.bookingRepo.GetByTeacherID(ctx, teacherID)
}

// GetConversation возвращает чат бронирования. Чат появляется при подтверждении.
func (s *BookingService) GetConversation(ctx context.Context, actor model.Actor, bookingID int64) (*model.Conversation, error) {
	conv, err := s.conversationRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get conversation")
	}

	if conv == nil {
		return nil, apperror.NotFound("conversation for booking %d not found", bookingID)
	}

	if !actor.IsAdmin() && conv.StudentID != actor.ID && conv.TeacherID != actor.ID {
		return nil, apperror.Unauthorized("no access to this conversation")
	}

	return conv, nil
}

// getSessionContext загружает занятие вместе с бронированием и курсом
func (s *BookingService) getSessionContext(ctx context.Context, sessionID int64) (*model.Session, *model.Booking, *model.Course, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, apperror.Internal(err, "get session")
	}

	if session == nil {
		return nil, nil, nil, apperror.NotFound("session %d not found", sessionID)
	}

	booking, err := s.bookingRepo.GetByID(ctx, session.BookingID)
	if err != nil {
		return nil, nil, nil, apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return nil, nil, nil, apperror.NotFound("booking %d not found", session.BookingID)
	}

	course, err := s.courseRepo.GetByID(ctx, booking.CourseID)
	if err != nil {
		return nil, nil, nil, apperror.Internal(err, "get course")
	}

	if course == nil {
		return nil, nil, nil, apperror.NotFound("course %d not found", booking.CourseID)
	}

	return session, booking, course, nil
}
