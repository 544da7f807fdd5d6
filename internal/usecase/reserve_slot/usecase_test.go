package reserve_slot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// 2031-03-03 - понедельник
var monday = time.Date(2031, time.March, 3, 0, 0, 0, 0, time.UTC)

func slotAt(hour, minute int) time.Time {
	return time.Date(2031, time.March, 3, hour, minute, 0, 0, time.UTC)
}

func mondayRule(capacity int) *domain.AvailabilityRule {
	return &domain.AvailabilityRule{
		ID:                  1,
		Weekday:             int(time.Monday),
		StartTime:           types.TimeString("09:00"),
		EndTime:             types.TimeString("12:00"),
		SlotDurationMinutes: 60,
		MaxParallel:         capacity,
		IsActive:            true,
	}
}

type fixture struct {
	store   *store
	tx      *serialTx
	metrics *recordingMetrics
	uc      *UseCase
}

func newFixture(rules ...*domain.AvailabilityRule) *fixture {
	s := newStore(rules...)
	tx := &serialTx{}
	m := &recordingMetrics{}
	uc := NewUseCase(s, s, s, tx, m, Config{HoldTTL: 10 * time.Minute, TxTimeout: time.Second}, logger.NewNop())
	uc.timeProvider = fixedClock{now: monday.AddDate(0, 0, -1)}
	return &fixture{store: s, tx: tx, metrics: m, uc: uc}
}

func TestUseCase_Reserve(t *testing.T) {
	f := newFixture(mondayRule(2))

	resp, err := f.uc.Execute(context.Background(), &Request{UserID: 42, RuleID: 1, SlotStart: slotAt(10, 0)})

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", resp.ReservationID.String())
	assert.Equal(t, slotAt(10, 0), resp.SlotStart)
	assert.Equal(t, slotAt(11, 0), resp.SlotEnd)
	assert.Equal(t, domain.ReservationHeld, resp.Status)
	assert.Equal(t, monday.AddDate(0, 0, -1).Add(10*time.Minute), resp.ExpiresAt)
	assert.Equal(t, 1, resp.Taken)
	assert.Equal(t, 2, resp.Capacity)

	require.Len(t, f.store.reservations, 1)
	require.NotNil(t, f.store.reservations[0].UserID)
	assert.Equal(t, int64(42), *f.store.reservations[0].UserID)
	assert.Equal(t, 1, f.metrics.count(OutcomeReserved))
}

func TestUseCase_CapacityAccounting(t *testing.T) {
	f := newFixture(mondayRule(2))
	f.store.consultations = []*domain.Consultation{
		{ID: 1, ScheduledAt: slotAt(9, 0), Status: domain.ConsultationScheduled},
		{ID: 2, ScheduledAt: slotAt(9, 0), Status: domain.ConsultationScheduled},
	}

	_, err := f.uc.Execute(context.Background(), &Request{RuleID: 1, SlotStart: slotAt(9, 0)})

	var capacityErr *domain.CapacityExceededError
	require.True(t, errors.As(err, &capacityErr))
	assert.Equal(t, 2, capacityErr.Taken)
	assert.Equal(t, 2, capacityErr.Capacity)
	assert.Equal(t, slotAt(9, 0), capacityErr.SlotStart)
	assert.Zero(t, f.store.reservationCount(), "no reservation row is written")
	assert.Equal(t, 1, f.metrics.count(OutcomeCapacityExceeded))
}

func TestUseCase_CanceledConsultationsFreeCapacity(t *testing.T) {
	f := newFixture(mondayRule(1))
	f.store.consultations = []*domain.Consultation{
		{ID: 1, ScheduledAt: slotAt(9, 0), Status: domain.ConsultationCanceled},
	}

	_, err := f.uc.Execute(context.Background(), &Request{RuleID: 1, SlotStart: slotAt(9, 0)})

	assert.NoError(t, err)
}

func TestUseCase_HoldsCountUntilExpired(t *testing.T) {
	f := newFixture(mondayRule(1))
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{RuleID: 1, SlotStart: slotAt(9, 0)})
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, &Request{RuleID: 1, SlotStart: slotAt(9, 0)})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	f.uc.timeProvider = fixedClock{now: monday.AddDate(0, 0, -1).Add(11 * time.Minute)}
	_, err = f.uc.Execute(ctx, &Request{RuleID: 1, SlotStart: slotAt(9, 0)})
	assert.NoError(t, err, "expired hold no longer occupies the slot")
}

func TestUseCase_HoldWithConsultationCountedOnce(t *testing.T) {
	f := newFixture(mondayRule(2))
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, &Request{UserID: 7, RuleID: 1, SlotStart: slotAt(10, 0)})
	require.NoError(t, err)

	// бронирование создало консультацию по удержанию, но еще не подтвердило его
	f.store.consultations = append(f.store.consultations, &domain.Consultation{
		ID:            10,
		UserID:        7,
		ScheduledAt:   slotAt(10, 0),
		Status:        domain.ConsultationScheduled,
		ReservationID: &first.ReservationID,
	})

	second, err := f.uc.Execute(ctx, &Request{UserID: 8, RuleID: 1, SlotStart: slotAt(10, 0)})

	require.NoError(t, err, "one booking occupies one spot")
	assert.Equal(t, 2, second.Taken)

	_, err = f.uc.Execute(ctx, &Request{UserID: 9, RuleID: 1, SlotStart: slotAt(10, 0)})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestUseCase_CanceledConsultationKeepsHoldCounted(t *testing.T) {
	f := newFixture(mondayRule(1))
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, &Request{UserID: 7, RuleID: 1, SlotStart: slotAt(10, 0)})
	require.NoError(t, err)

	f.store.consultations = append(f.store.consultations, &domain.Consultation{
		ID:            10,
		ScheduledAt:   slotAt(10, 0),
		Status:        domain.ConsultationCanceled,
		ReservationID: &first.ReservationID,
	})

	_, err = f.uc.Execute(ctx, &Request{UserID: 8, RuleID: 1, SlotStart: slotAt(10, 0)})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestUseCase_ConcurrentLastSpot(t *testing.T) {
	f := newFixture(mondayRule(2))
	f.store.consultations = []*domain.Consultation{
		{ID: 1, ScheduledAt: slotAt(11, 0), Status: domain.ConsultationScheduled},
	}

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), &Request{UserID: userID, RuleID: 1, SlotStart: slotAt(11, 0)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, 1, f.store.reservationCount())
}

func TestUseCase_Rejections(t *testing.T) {
	inactive := mondayRule(2)
	inactive.IsActive = false
	inactive.ID = 2

	tests := []struct {
		name    string
		req     *Request
		target  error
		kind    domain.ValidationKind
		outcome string
	}{
		{"inactive rule", &Request{RuleID: 2, SlotStart: slotAt(9, 0)}, domain.ErrRuleInactive, "", OutcomeRuleInactive},
		{"unknown rule", &Request{RuleID: 99, SlotStart: slotAt(9, 0)}, domain.ErrNotFound, "", OutcomeNotFound},
		{"between boundaries", &Request{RuleID: 1, SlotStart: slotAt(9, 30)}, domain.ErrValidation, domain.KindSlotMisaligned, OutcomeInvalid},
		{"at window end", &Request{RuleID: 1, SlotStart: slotAt(12, 0)}, domain.ErrValidation, domain.KindSlotMisaligned, OutcomeInvalid},
		{"wrong weekday", &Request{RuleID: 1, SlotStart: slotAt(9, 0).AddDate(0, 0, 1)}, domain.ErrValidation, domain.KindSlotMisaligned, OutcomeInvalid},
		{"in the past", &Request{RuleID: 1, SlotStart: slotAt(9, 0).AddDate(0, 0, -7)}, domain.ErrValidation, domain.KindSlotInPast, OutcomeInvalid},
		{"missing rule id", &Request{SlotStart: slotAt(9, 0)}, domain.ErrValidation, domain.KindInputInvalid, OutcomeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(mondayRule(2), inactive)

			_, err := f.uc.Execute(context.Background(), tt.req)

			require.ErrorIs(t, err, tt.target)
			if tt.kind != "" {
				var vErr *domain.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.kind, vErr.Kind)
			}
			assert.Equal(t, 1, f.metrics.count(tt.outcome))
			assert.Zero(t, f.store.reservationCount())
		})
	}
}

func TestUseCase_PersistentSerializationFailure(t *testing.T) {
	f := newFixture(mondayRule(2))
	f.tx.err = fmt.Errorf("%w: retries exhausted", txmanager.ErrSerialization)

	_, err := f.uc.Execute(context.Background(), &Request{RuleID: 1, SlotStart: slotAt(9, 0)})

	var capacityErr *domain.CapacityExceededError
	require.True(t, errors.As(err, &capacityErr))
	assert.Equal(t, int64(1), capacityErr.RuleID)
	assert.Zero(t, capacityErr.Capacity)
	assert.Equal(t, 1, f.metrics.count(OutcomeContention))
}

func TestUseCase_Timeout(t *testing.T) {
	f := newFixture(mondayRule(2))
	f.tx.err = fmt.Errorf("begin: %w", context.DeadlineExceeded)

	_, err := f.uc.Execute(context.Background(), &Request{RuleID: 1, SlotStart: slotAt(9, 0)})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, f.metrics.count(OutcomeTimeout))
}

func TestUseCase_SlotInScheduleZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	s := newStore(mondayRule(1))
	uc := NewUseCase(s, s, s, &serialTx{}, &recordingMetrics{}, Config{Location: loc}, logger.NewNop())
	uc.timeProvider = fixedClock{now: monday.AddDate(0, 0, -1)}

	// 08:00 UTC = 09:00 в Берлине зимой
	resp, err := uc.Execute(context.Background(), &Request{RuleID: 1, SlotStart: slotAt(8, 0)})

	require.NoError(t, err)
	assert.True(t, resp.SlotStart.Equal(slotAt(8, 0)))
	assert.Equal(t, 9, resp.SlotStart.Hour())
}
