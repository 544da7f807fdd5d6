package list_rule_logs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/pagination"
)

type stubService struct {
	got *models.ListLogsRequest
	err error
}

func (s *stubService) ListLogs(_ context.Context, req *models.ListLogsRequest) (*models.LogListResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.LogListResponse{
		Entries: []models.LogEntryResponse{{ID: 1, RuleID: 3, Action: "create"}},
		Total:   4,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: true,
	}, nil
}

func serve(svc RuleService, query string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/availability/logs"+query, nil)
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandler_Listed(t *testing.T) {
	svc := &stubService{}

	w := serve(svc, "?ruleId=3&action=create&sort=action&order=asc&limit=1&offset=2")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.got)
	require.NotNil(t, svc.got.RuleID)
	assert.Equal(t, int64(3), *svc.got.RuleID)
	require.NotNil(t, svc.got.Action)
	assert.Equal(t, "create", *svc.got.Action)
	assert.Equal(t, "action", svc.got.SortBy)
	assert.Equal(t, "asc", svc.got.Order)
	assert.Equal(t, 1, svc.got.Limit)
	assert.Equal(t, 2, svc.got.Offset)
	assert.Contains(t, w.Body.String(), `"hasMore":true`)
}

func TestHandler_DefaultPage(t *testing.T) {
	svc := &stubService{}

	w := serve(svc, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.got.RuleID)
	assert.Nil(t, svc.got.Action)
	assert.Equal(t, pagination.DefaultLimit, svc.got.Limit)
	assert.Zero(t, svc.got.Offset)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		err         error
		wantCode    int
		wantDetails string
	}{
		{"rule id not a number", "?ruleId=abc", nil, http.StatusBadRequest, ""},
		{"limit not a number", "?limit=ten", nil, http.StatusBadRequest, ""},
		{
			"unknown action", "?action=purge",
			fmt.Errorf("%w: unknown action %q", rules.ErrInvalidInput, "purge"),
			http.StatusBadRequest, "unknown action",
		},
		{
			"bad order", "?order=up",
			fmt.Errorf("%w: order must be asc or desc", rules.ErrInvalidInput),
			http.StatusBadRequest, "order must be asc or desc",
		},
		{"internal", "", rules.ErrInternal, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(&stubService{err: tt.err}, tt.query)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantDetails != "" {
				assert.Contains(t, w.Body.String(), tt.wantDetails)
			}
		})
	}
}
