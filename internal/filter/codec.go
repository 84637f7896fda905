package filter

import (
	"net/url"
	"strconv"
	"strings"

	"txdash/internal/transaction/domain"
)

// Query parameter names. "page", "limit", "sort", and "dir" are owned by
// the query layer, not the filter codec.
const (
	paramSearch = "search"
	paramStatus = "status"
	paramFrom   = "from"
	paramTo     = "to"
	paramMin    = "min"
	paramMax    = "max"
)

// Parse converts URL query parameters into a Model. It is pure and
// permissive: absent or empty params are omitted, numbers that do not
// parse are omitted, unknown statuses are dropped, and a full status set
// normalizes to absent. Validation happens separately.
func Parse(params url.Values) Model {
	var m Model

	if search := params.Get(paramSearch); search != "" {
		m.Search = search
	}

	if raw := params.Get(paramStatus); raw != "" {
		var statuses []domain.Status
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, ok := domain.ParseStatus(part)
			if !ok {
				continue
			}
			if !containsStatus(statuses, status) {
				statuses = append(statuses, status)
			}
		}
		// All statuses selected filters nothing; treat as no filter.
		if len(statuses) > 0 && !hasAllStatuses(statuses) {
			m.Status = statuses
		}
	}

	if from := params.Get(paramFrom); from != "" {
		m.From = from
	}
	if to := params.Get(paramTo); to != "" {
		m.To = to
	}

	if raw := params.Get(paramMin); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			m.MinAmount = &v
		}
	}
	if raw := params.Get(paramMax); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			m.MaxAmount = &v
		}
	}

	return m
}

// Serialize is the inverse of Parse: it emits only set fields, joins
// statuses on commas, and omits a full status set entirely.
func Serialize(m Model) url.Values {
	params := url.Values{}

	if m.Search != "" {
		params.Set(paramSearch, m.Search)
	}
	if len(m.Status) > 0 && !hasAllStatuses(m.Status) {
		parts := make([]string, len(m.Status))
		for i, s := range m.Status {
			parts[i] = string(s)
		}
		params.Set(paramStatus, strings.Join(parts, ","))
	}
	if m.From != "" {
		params.Set(paramFrom, m.From)
	}
	if m.To != "" {
		params.Set(paramTo, m.To)
	}
	if m.MinAmount != nil {
		params.Set(paramMin, strconv.FormatFloat(*m.MinAmount, 'f', -1, 64))
	}
	if m.MaxAmount != nil {
		params.Set(paramMax, strconv.FormatFloat(*m.MaxAmount, 'f', -1, 64))
	}

	return params
}

func containsStatus(statuses []domain.Status, s domain.Status) bool {
	for _, have := range statuses {
		if have == s {
			return true
		}
	}
	return false
}
