package duplicate_rule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
)

type stubService struct {
	gotID  int64
	gotReq *models.DuplicateRuleRequest
	err    error
}

func (s *stubService) Duplicate(_ context.Context, id int64, req *models.DuplicateRuleRequest) (*models.RuleResponse, error) {
	s.gotID, s.gotReq = id, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.RuleResponse{ID: 9, IsActive: true}, nil
}

func serve(svc RuleService, ruleID, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/availability/rules/"+ruleID+"/duplicate", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"ruleId": ruleID})
	r = r.WithContext(middleware.WithUser(r.Context(), 1, middleware.RoleAdmin))
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandler_EmptyBody(t *testing.T) {
	svc := &stubService{}

	w := serve(svc, "4", "")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(4), svc.gotID)
	assert.True(t, svc.gotReq.Overrides.IsEmpty())
}

func TestHandler_WithOverrides(t *testing.T) {
	svc := &stubService{}

	w := serve(svc, "4", `{"weekday":3,"isActive":false}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.gotReq.Overrides.Weekday)
	assert.Equal(t, 3, *svc.gotReq.Overrides.Weekday)
	assert.False(t, *svc.gotReq.Overrides.IsActive)
}

func TestHandler_Errors(t *testing.T) {
	t.Run("bad id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(&stubService{}, "0", "").Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(&stubService{err: domain.NewNotFoundError(domain.ResourceRule, int64(4))}, "4", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("copy overlaps", func(t *testing.T) {
		err := &domain.ConflictError{ConflictingRule: domain.AvailabilityRule{ID: 4, Weekday: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true}}
		w := serve(&stubService{err: err}, "4", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"RULE_CONFLICT"`)
	})
}
