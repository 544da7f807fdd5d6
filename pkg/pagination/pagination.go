package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Params параметры постраничной выборки
type Params struct {
	Limit  int
	Offset int
}

// FromQuery читает limit и offset из query-параметров.
// Возвращает ok=false, если значение не число.
func FromQuery(q url.Values) (Params, bool) {
	p := Params{Limit: DefaultLimit}

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, false
		}
		p.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, false
		}
		p.Offset = v
	}

	return p.Normalize(), true
}

// Normalize приводит значения к допустимым границам
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// HasMore возвращает true, если за текущей страницей есть еще записи
func (p Params) HasMore(total int) bool {
	return p.Offset+p.Limit < total
}
