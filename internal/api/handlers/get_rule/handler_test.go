package get_rule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
)

type stubService struct {
	gotID int64
	err   error
}

func (s *stubService) GetByID(_ context.Context, id int64) (*models.RuleResponse, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.RuleResponse{ID: id, Weekday: 3, StartTime: "14:00", EndTime: "18:00", SlotDurationMinutes: 30, MaxParallel: 2, IsActive: true}, nil
}

func serve(svc RuleService, ruleID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/availability/rules/"+ruleID, nil)
	r = mux.SetURLVars(r, map[string]string{"ruleId": ruleID})
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandler_Found(t *testing.T) {
	svc := &stubService{}

	w := serve(svc, "4")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), svc.gotID)
	assert.Contains(t, w.Body.String(), `"id":4`)
	assert.Contains(t, w.Body.String(), `"startTime":"14:00"`)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ruleID   string
		err      error
		wantCode int
	}{
		{"bad rule id", "four", nil, http.StatusBadRequest},
		{"zero rule id", "0", nil, http.StatusBadRequest},
		{"not found", "4", domain.NewNotFoundError(domain.ResourceRule, 4), http.StatusNotFound},
		{"internal", "4", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(&stubService{err: tt.err}, tt.ruleID)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
