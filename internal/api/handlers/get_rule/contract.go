package get_rule

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

type RuleService interface {
	GetByID(ctx context.Context, id int64) (*models.RuleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
