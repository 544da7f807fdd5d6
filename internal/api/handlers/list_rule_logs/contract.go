package list_rule_logs

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

type RuleService interface {
	ListLogs(ctx context.Context, req *models.ListLogsRequest) (*models.LogListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
