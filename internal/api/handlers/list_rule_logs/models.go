package list_rule_logs

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/pagination"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
)

var errInvalidPage = errors.New("limit and offset must be non-negative integers")

// ToServiceRequest собирает запрос журнала из query параметров
// ruleId, action, sort, order, limit, offset
func ToServiceRequest(query url.Values) (*models.ListLogsRequest, error) {
	page, ok := pagination.FromQuery(query)
	if !ok {
		return nil, errInvalidPage
	}

	req := &models.ListLogsRequest{
		SortBy: query.Get("sort"),
		Order:  query.Get("order"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	if raw := query.Get("ruleId"); raw != "" {
		ruleID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.RuleID = ptr.Ptr(ruleID)
	}

	if action := query.Get("action"); action != "" {
		req.Action = ptr.Ptr(action)
	}

	return req, nil
}
