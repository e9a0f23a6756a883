package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
)

type fakeUnavailableStore struct {
	unavailableStore
	createErr error
	created   *model.TeacherUnavailableDate
}

func (f *fakeUnavailableStore) Create(ctx context.Context, date *model.TeacherUnavailableDate) error {
	if f.createErr != nil {
		return f.createErr
	}
	date.ID = 1
	f.created = date
	return nil
}

func TestMatchConflict(t *testing.T) {
	base := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	t.Run("no conflicts", func(t *testing.T) {
		c := matchConflict([]time.Time{at(0), at(1), at(2)}, nil, nil)
		assert.Nil(t, c)
	})

	t.Run("busy instant", func(t *testing.T) {
		c := matchConflict([]time.Time{at(0), at(1)}, []time.Time{at(1)}, nil)
		require.NotNil(t, c)
		assert.Equal(t, at(1), c.Instant)
		assert.Equal(t, "teacher already has a session at this time", c.Reason)
	})

	t.Run("blocked instant", func(t *testing.T) {
		c := matchConflict([]time.Time{at(0), at(1)}, nil, []time.Time{at(0)})
		require.NotNil(t, c)
		assert.Equal(t, at(0), c.Instant)
		assert.Equal(t, "teacher has blocked this time", c.Reason)
	})

	t.Run("returns first conflict in candidate order", func(t *testing.T) {
		c := matchConflict(
			[]time.Time{at(0), at(1), at(2)},
			[]time.Time{at(2)},
			[]time.Time{at(1)},
		)
		require.NotNil(t, c)
		assert.Equal(t, at(1), c.Instant)
	})

	t.Run("busy wins over blocked at the same instant", func(t *testing.T) {
		c := matchConflict([]time.Time{at(0)}, []time.Time{at(0)}, []time.Time{at(0)})
		require.NotNil(t, c)
		assert.Equal(t, "teacher already has a session at this time", c.Reason)
	})

	t.Run("adjacent instants do not collide", func(t *testing.T) {
		// Совпадение строго по моменту: минута разницы - уже не конфликт
		c := matchConflict([]time.Time{at(0)}, []time.Time{at(0).Add(time.Minute)}, nil)
		assert.Nil(t, c)
	})
}

func TestAddUnavailableDate(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	t.Run("teacher blocks own schedule", func(t *testing.T) {
		store := &fakeUnavailableStore{}
		svc := NewAvailabilityService(nil, store, zap.NewNop())

		date, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 5, Role: model.RoleTeacher}, 0, at)
		require.NoError(t, err)
		assert.Equal(t, int64(5), date.TeacherID)
		assert.Equal(t, at, store.created.BlockedAt)
	})

	t.Run("admin blocks another teacher's schedule", func(t *testing.T) {
		store := &fakeUnavailableStore{}
		svc := NewAvailabilityService(nil, store, zap.NewNop())

		date, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 1, Role: model.RoleAdmin}, 7, at)
		require.NoError(t, err)
		assert.Equal(t, int64(7), date.TeacherID)
	})

	t.Run("teacher cannot block another teacher", func(t *testing.T) {
		svc := NewAvailabilityService(nil, &fakeUnavailableStore{}, zap.NewNop())

		_, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 5, Role: model.RoleTeacher}, 7, at)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	})

	t.Run("student cannot block", func(t *testing.T) {
		svc := NewAvailabilityService(nil, &fakeUnavailableStore{}, zap.NewNop())

		_, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 3, Role: model.RoleStudent}, 0, at)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	})

	// Повторная блокировка того же момента - конфликт, а не внутренняя ошибка
	t.Run("duplicate block maps to conflict", func(t *testing.T) {
		dup := fmt.Errorf("create unavailable date: %w", &pgconn.PgError{Code: "23505"})
		svc := NewAvailabilityService(nil, &fakeUnavailableStore{createErr: dup}, zap.NewNop())

		_, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 5, Role: model.RoleTeacher}, 0, at)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("other storage errors stay internal", func(t *testing.T) {
		svc := NewAvailabilityService(nil, &fakeUnavailableStore{createErr: fmt.Errorf("connection reset")}, zap.NewNop())

		_, err := svc.AddUnavailableDate(ctx, model.Actor{ID: 5, Role: model.RoleTeacher}, 0, at)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindInternal))
	})
}
