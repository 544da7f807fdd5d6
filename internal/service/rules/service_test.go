package rules

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

func monday() time.Time {
	return time.Date(2031, time.March, 3, 0, 0, 0, 0, time.UTC)
}

func createReq(weekday int, start, end string) *models.CreateRuleRequest {
	return &models.CreateRuleRequest{
		UserID:              1,
		Weekday:             weekday,
		StartTime:           start,
		EndTime:             end,
		SlotDurationMinutes: 30,
		MaxParallel:         2,
	}
}

func mustCreate(t *testing.T, f *fixture, weekday int, start, end string) *models.RuleResponse {
	t.Helper()
	rule, err := f.svc.Create(context.Background(), createReq(weekday, start, end))
	require.NoError(t, err)
	return rule
}

func TestService_Create(t *testing.T) {
	f := newFixture(true)

	rule := mustCreate(t, f, 1, "09:00", "12:00")

	assert.NotZero(t, rule.ID)
	assert.True(t, rule.IsActive, "active by default")
	assert.Equal(t, []domain.LogAction{domain.LogActionCreate}, f.actions(rule.ID))
	assert.Equal(t, [][]int{{1}}, f.cache.calls)
}

func TestService_Create_ConflictDetail(t *testing.T) {
	f := newFixture(true)
	first := mustCreate(t, f, 1, "09:00", "10:00")

	_, err := f.svc.Create(context.Background(), createReq(1, "09:30", "10:30"))

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, first.ID, conflict.ConflictingRule.ID)
	assert.Equal(t, 1, conflict.ConflictingRule.Weekday)
	assert.Equal(t, "09:00", conflict.ConflictingRule.StartTime.String())
	assert.Equal(t, "10:00", conflict.ConflictingRule.EndTime.String())
	assert.Len(t, f.store.rules, 1, "nothing persisted")
}

func TestService_Create_ValidationBeforeTransaction(t *testing.T) {
	f := newFixture(true)
	f.tx.err = errors.New("must not be called")

	_, err := f.svc.Create(context.Background(), createReq(1, "12:00", "09:00"))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, domain.KindTimeRangeInvalid, vErr.Kind)
}

func TestService_Create_RemainderPolicy(t *testing.T) {
	req := createReq(1, "09:00", "12:40")
	req.SlotDurationMinutes = 60

	strict := newFixture(true)
	_, err := strict.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	lenient := newFixture(false)
	rule, err := lenient.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "12:40", rule.EndTime)
}

func TestService_Create_LogFailureRollsBack(t *testing.T) {
	f := newFixture(true)
	f.store.appendErr = errAppend

	_, err := f.svc.Create(context.Background(), createReq(1, "09:00", "10:00"))

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, errAppend)
	assert.Empty(t, f.store.rules)
	assert.Empty(t, f.cache.calls, "cache is not invalidated for a rolled back change")
}

func TestService_Create_SerializationFailure(t *testing.T) {
	f := newFixture(true)
	f.tx.err = fmt.Errorf("%w: retries exhausted", txmanager.ErrSerialization)

	_, err := f.svc.Create(context.Background(), createReq(1, "09:00", "10:00"))

	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestService_Update(t *testing.T) {
	f := newFixture(true)
	rule := mustCreate(t, f, 1, "09:00", "10:00")
	mustCreate(t, f, 1, "11:00", "12:00")

	t.Run("extends into own window", func(t *testing.T) {
		updated, err := f.svc.Update(context.Background(), rule.ID, &models.UpdateRuleRequest{
			RulePatch: models.RulePatch{EndTime: ptr.Ptr("11:00")},
		})
		require.NoError(t, err)
		assert.Equal(t, "09:00", updated.StartTime)
		assert.Equal(t, "11:00", updated.EndTime)
		assert.Equal(t, 2, updated.MaxParallel, "untouched fields kept")
	})

	t.Run("overlap with neighbour", func(t *testing.T) {
		_, err := f.svc.Update(context.Background(), rule.ID, &models.UpdateRuleRequest{
			RulePatch: models.RulePatch{EndTime: ptr.Ptr("11:30")},
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("move to another weekday invalidates both", func(t *testing.T) {
		f.cache.calls = nil
		_, err := f.svc.Update(context.Background(), rule.ID, &models.UpdateRuleRequest{
			RulePatch: models.RulePatch{Weekday: ptr.Ptr(3)},
		})
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 3}}, f.cache.calls)
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := f.svc.Update(context.Background(), rule.ID, &models.UpdateRuleRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.svc.Update(context.Background(), 999, &models.UpdateRuleRequest{
			RulePatch: models.RulePatch{MaxParallel: ptr.Ptr(3)},
		})
		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "999", nf.ID)
	})

	assert.Equal(t,
		[]domain.LogAction{domain.LogActionCreate, domain.LogActionUpdate, domain.LogActionUpdate},
		f.actions(rule.ID))
}

func TestService_SetActive_IdempotentToggle(t *testing.T) {
	f := newFixture(true)
	created := mustCreate(t, f, 1, "09:00", "12:00")
	original, err := f.svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.SetActive(context.Background(), created.ID, &models.SetActiveRequest{Active: false})
	require.NoError(t, err)
	restored, err := f.svc.SetActive(context.Background(), created.ID, &models.SetActiveRequest{Active: true})
	require.NoError(t, err)

	assert.Equal(t, original, restored)
	assert.Equal(t,
		[]domain.LogAction{domain.LogActionCreate, domain.LogActionDeactivate, domain.LogActionActivate},
		f.actions(created.ID))
}

func TestService_SetActive_SameStateIsNoop(t *testing.T) {
	f := newFixture(true)
	created := mustCreate(t, f, 1, "09:00", "12:00")

	rule, err := f.svc.SetActive(context.Background(), created.ID, &models.SetActiveRequest{Active: true})

	require.NoError(t, err)
	assert.True(t, rule.IsActive)
	assert.Equal(t, []domain.LogAction{domain.LogActionCreate}, f.actions(created.ID))
}

func TestService_SetActive_ActivationConflict(t *testing.T) {
	f := newFixture(true)
	first := mustCreate(t, f, 1, "09:00", "12:00")

	_, err := f.svc.SetActive(context.Background(), first.ID, &models.SetActiveRequest{Active: false})
	require.NoError(t, err)
	second := mustCreate(t, f, 1, "10:00", "11:00")

	_, err = f.svc.SetActive(context.Background(), first.ID, &models.SetActiveRequest{Active: true})

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, second.ID, conflict.ConflictingRule.ID)
}

func TestService_Delete_KeepsHistory(t *testing.T) {
	f := newFixture(true)
	rule := mustCreate(t, f, 1, "09:00", "12:00")

	require.NoError(t, f.svc.Delete(context.Background(), rule.ID, 5))

	_, err := f.svc.GetByID(context.Background(), rule.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []domain.LogAction{domain.LogActionCreate, domain.LogActionDelete}, f.actions(rule.ID))

	last := f.store.logs[len(f.store.logs)-1]
	require.NotNil(t, last.ActorID)
	assert.Equal(t, int64(5), *last.ActorID)
	assert.Equal(t, "09:00", last.StartTime.String(), "snapshot of the deleted rule")

	assert.ErrorIs(t, f.svc.Delete(context.Background(), rule.ID, 5), domain.ErrNotFound)
}

func TestService_Duplicate(t *testing.T) {
	f := newFixture(true)
	source := mustCreate(t, f, 1, "09:00", "12:00")

	t.Run("conflicting copy is created inactive", func(t *testing.T) {
		copyRule, err := f.svc.Duplicate(context.Background(), source.ID, &models.DuplicateRuleRequest{})
		require.NoError(t, err)
		assert.NotEqual(t, source.ID, copyRule.ID)
		assert.False(t, copyRule.IsActive)
		assert.Equal(t, source.StartTime, copyRule.StartTime)
		assert.Equal(t, source.MaxParallel, copyRule.MaxParallel)
	})

	t.Run("copy to a free weekday stays active", func(t *testing.T) {
		copyRule, err := f.svc.Duplicate(context.Background(), source.ID, &models.DuplicateRuleRequest{
			Overrides: models.RulePatch{Weekday: ptr.Ptr(2)},
		})
		require.NoError(t, err)
		assert.True(t, copyRule.IsActive)
		assert.Equal(t, 2, copyRule.Weekday)
	})

	t.Run("explicitly active conflicting copy fails", func(t *testing.T) {
		_, err := f.svc.Duplicate(context.Background(), source.ID, &models.DuplicateRuleRequest{
			Overrides: models.RulePatch{IsActive: ptr.Ptr(true)},
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := f.svc.Duplicate(context.Background(), 404, &models.DuplicateRuleRequest{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_NonOverlapInvariant(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	windows := [][2]string{
		{"08:00", "10:00"}, {"09:00", "11:00"}, {"10:00", "12:00"}, {"11:30", "13:00"},
		{"07:00", "08:00"}, {"12:00", "12:30"}, {"06:00", "14:00"}, {"13:00", "14:00"},
	}
	for _, w := range windows {
		_, _ = f.svc.Create(ctx, createReq(1, w[0], w[1]))
	}

	all, err := f.svc.List(ctx, &models.ListRulesRequest{Weekday: ptr.Ptr(1)})
	require.NoError(t, err)
	for _, id := range []int64{1, 2, 3} {
		_, _ = f.svc.SetActive(ctx, id, &models.SetActiveRequest{Active: false})
		_, _ = f.svc.SetActive(ctx, id, &models.SetActiveRequest{Active: true})
	}
	_, _ = f.svc.Update(ctx, 1, &models.UpdateRuleRequest{RulePatch: models.RulePatch{EndTime: ptr.Ptr("13:30")}})

	active, err := f.svc.List(ctx, &models.ListRulesRequest{Weekday: ptr.Ptr(1), Active: ptr.Ptr(true)})
	require.NoError(t, err)
	require.NotEmpty(t, all.Rules)

	for i := range active.Rules {
		for j := i + 1; j < len(active.Rules); j++ {
			a, b := active.Rules[i], active.Rules[j]
			overlap := a.StartTime < b.EndTime && b.StartTime < a.EndTime
			assert.False(t, overlap, "rules %d and %d overlap", a.ID, b.ID)
		}
	}
}

func TestService_ListLogs(t *testing.T) {
	f := newFixture(true)
	rule := mustCreate(t, f, 1, "09:00", "12:00")
	_, err := f.svc.SetActive(context.Background(), rule.ID, &models.SetActiveRequest{Active: false})
	require.NoError(t, err)

	resp, err := f.svc.ListLogs(context.Background(), &models.ListLogsRequest{
		RuleID: ptr.Ptr(rule.ID),
		Action: ptr.Ptr("DEACTIVATE"),
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "deactivate", resp.Entries[0].Action)
	assert.Equal(t, 1, resp.Total)
	assert.False(t, resp.HasMore)

	_, err = f.svc.ListLogs(context.Background(), &models.ListLogsRequest{Action: ptr.Ptr("rename")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListLogs(context.Background(), &models.ListLogsRequest{SortBy: "color"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListLogs(context.Background(), &models.ListLogsRequest{Order: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestToLogFilter_Defaults(t *testing.T) {
	filter, err := toLogFilter(&models.ListLogsRequest{})

	require.NoError(t, err)
	assert.Equal(t, domain.LogSortByTimestamp, filter.SortBy)
	assert.True(t, filter.Descending)
	assert.Equal(t, 50, filter.Limit)
	assert.Zero(t, filter.Offset)
}
