package list_rules

import (
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

// ToServiceRequest собирает фильтр из query параметров weekday и active
func ToServiceRequest(query url.Values) (*models.ListRulesRequest, error) {
	req := &models.ListRulesRequest{}

	if raw := query.Get("weekday"); raw != "" {
		weekday, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		req.Weekday = &weekday
	}

	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		req.Active = &active
	}

	return req, nil
}
