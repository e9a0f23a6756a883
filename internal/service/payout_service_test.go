package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
)

func TestPreviousWeekWindow(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "monday morning",
			now:       time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC),
			wantStart: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "mid week",
			now:       time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday just before midnight",
			now:       time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC),
			wantStart: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "keeps local timezone",
			now:       time.Date(2026, 8, 26, 12, 0, 0, 0, msk),
			wantStart: time.Date(2026, 8, 17, 0, 0, 0, 0, msk),
			wantEnd:   time.Date(2026, 8, 24, 0, 0, 0, 0, msk),
		},
		{
			name:      "window across month boundary",
			now:       time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PreviousWeekWindow(tt.now)
			assert.True(t, start.Equal(tt.wantStart), "start: got %s want %s", start, tt.wantStart)
			assert.True(t, end.Equal(tt.wantEnd), "end: got %s want %s", end, tt.wantEnd)
			assert.Equal(t, time.Monday, start.Weekday())
			assert.Equal(t, time.Monday, end.Weekday())
		})
	}
}

func TestSessionHonorarium(t *testing.T) {
	tests := []struct {
		price int64
		fee   float64
		want  int64
	}{
		{100000, 0.15, 85000},
		{100000, 0, 100000},
		{150000, 0.15, 127500},
		{333, 0.15, 283},   // 283.05 округляется вниз
		{335, 0.15, 285},   // 284.75 округляется вверх
		{100000, 0.5, 50000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SessionHonorarium(tt.price, tt.fee),
			"price=%d fee=%v", tt.price, tt.fee)
	}
}

func TestGroupSessions(t *testing.T) {
	sessions := []repository.CompletedUnclaimed{
		{SessionID: 1, TeacherID: 10, Price: 100000},
		{SessionID: 2, TeacherID: 20, Price: 200000},
		{SessionID: 3, TeacherID: 10, Price: 100000},
		{SessionID: 4, TeacherID: 10, Price: 150000},
	}

	groups := groupSessions(sessions, 0.15)
	require.Len(t, groups, 2)

	// Порядок групп следует первому появлению учителя
	first := groups[0]
	assert.Equal(t, int64(10), first.teacherID)
	assert.Equal(t, []int64{1, 3, 4}, first.sessionIDs)
	assert.Equal(t, int64(350000), first.gross)
	// Гонорар считается по каждому занятию отдельно: 85000+85000+127500
	assert.Equal(t, int64(297500), first.honorarium)

	second := groups[1]
	assert.Equal(t, int64(20), second.teacherID)
	assert.Equal(t, []int64{2}, second.sessionIDs)
	assert.Equal(t, int64(200000), second.gross)
	assert.Equal(t, int64(170000), second.honorarium)
}

func TestGroupSessionsEmpty(t *testing.T) {
	assert.Empty(t, groupSessions(nil, 0.15))
}

// fakeTx подменяет транзакцию, фиксируя факт коммита или отката
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	return f.tx, nil
}

type fakePayoutSessions struct {
	unclaimed []repository.CompletedUnclaimed
	claimed   int64
	claims    int
}

func (f *fakePayoutSessions) GetCompletedUnclaimed(ctx context.Context, from, to time.Time) ([]repository.CompletedUnclaimed, error) {
	return f.unclaimed, nil
}

func (f *fakePayoutSessions) ClaimForPayoutTx(ctx context.Context, q base.Querier, payoutID int64, sessionIDs []int64) (int64, error) {
	f.claims++
	return f.claimed, nil
}

type fakePayoutStore struct {
	payoutStore
	created []*model.TeacherPayout
}

func (f *fakePayoutStore) CreateTx(ctx context.Context, q base.Querier, payout *model.TeacherPayout) error {
	payout.ID = int64(len(f.created) + 1)
	f.created = append(f.created, payout)
	return nil
}

type fixedFee float64

func (f fixedFee) ServiceFeePercentage(ctx context.Context) float64 { return float64(f) }

type fakeNotifier struct {
	sent int
}

func (f *fakeNotifier) Notify(recipientID int64, content, link string) { f.sent++ }

func TestRunPayoutCalculation(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	t.Run("empty window creates nothing", func(t *testing.T) {
		payouts := &fakePayoutStore{}
		svc := NewPayoutService(&fakePool{tx: &fakeTx{}}, &fakePayoutSessions{}, payouts, fixedFee(0.15), &fakeNotifier{}, zap.NewNop())

		// Повторный запуск по уже выплаченному окну ничего не создаёт
		got, err := svc.RunPayoutCalculation(ctx, start, end)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Empty(t, payouts.created)
	})

	t.Run("inverted window rejected", func(t *testing.T) {
		svc := NewPayoutService(&fakePool{tx: &fakeTx{}}, &fakePayoutSessions{}, &fakePayoutStore{}, fixedFee(0.15), &fakeNotifier{}, zap.NewNop())

		_, err := svc.RunPayoutCalculation(ctx, end, start)
		require.Error(t, err)
	})

	// Параллельный запуск успел забрать часть занятий - транзакция откатывается
	t.Run("claim mismatch rolls back without payout", func(t *testing.T) {
		tx := &fakeTx{}
		sessions := &fakePayoutSessions{
			unclaimed: []repository.CompletedUnclaimed{
				{SessionID: 1, TeacherID: 10, Price: 100000},
				{SessionID: 2, TeacherID: 10, Price: 100000},
			},
			claimed: 1,
		}
		notifier := &fakeNotifier{}
		svc := NewPayoutService(&fakePool{tx: tx}, sessions, &fakePayoutStore{}, fixedFee(0.15), notifier, zap.NewNop())

		got, err := svc.RunPayoutCalculation(ctx, start, end)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
		assert.Equal(t, 0, notifier.sent)
	})

	t.Run("full claim commits one payout per teacher", func(t *testing.T) {
		tx := &fakeTx{}
		sessions := &fakePayoutSessions{
			unclaimed: []repository.CompletedUnclaimed{
				{SessionID: 1, TeacherID: 10, Price: 100000},
				{SessionID: 2, TeacherID: 10, Price: 100000},
			},
			claimed: 2,
		}
		payouts := &fakePayoutStore{}
		notifier := &fakeNotifier{}
		svc := NewPayoutService(&fakePool{tx: tx}, sessions, payouts, fixedFee(0.15), notifier, zap.NewNop())

		got, err := svc.RunPayoutCalculation(ctx, start, end)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, tx.committed)
		assert.Equal(t, 1, sessions.claims)

		p := got[0]
		assert.Equal(t, int64(10), p.TeacherID)
		assert.Equal(t, 2, p.TotalSessions)
		assert.Equal(t, int64(200000), p.GrossAmount)
		assert.Equal(t, int64(170000), p.HonorariumAmount)
		assert.Equal(t, 0.15, p.ServiceFeePercentage)
		assert.Equal(t, model.PayoutStatusPendingPayment, p.Status)
		assert.Equal(t, 1, notifier.sent)
	})
}
