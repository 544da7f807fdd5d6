package duplicate_rule

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

type RuleService interface {
	Duplicate(ctx context.Context, id int64, req *models.DuplicateRuleRequest) (*models.RuleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
