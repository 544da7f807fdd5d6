package metrics

import (
	"database/sql"
	"time"
)

// Nop коллектор-заглушка, используется при выключенных метриках и в тестах
type Nop struct{}

func (Nop) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (Nop) ObserveDBQuery(string, time.Duration, error)          {}
func (Nop) SetDBPoolStats(sql.DBStats)                           {}
func (Nop) ObserveAdmission(string)                              {}
func (Nop) ObserveRuleMutation(string)                           {}
func (Nop) ObserveRuleCache(bool)                                {}
func (Nop) AddHoldsExpired(int64)                                {}
