package ranking

import (
	"strconv"
	"strings"

	"github.com/golang-sql/civil"
)

// Filter narrows the event set. A nil field means no restriction on that
// dimension. DeveloperID is the soft developer filter of the global view.
type Filter struct {
	DateFrom    *civil.Date
	DateTo      *civil.Date
	ProjectID   *int64
	DeveloperID *int64
}

// Criteria is the predicate handed to the store once scope and filter are
// resolved. For a developer scope DeveloperID always holds the tenant id.
type Criteria struct {
	DeveloperID *int64
	ProjectID   *int64
	DateFrom    *civil.Date
	DateTo      *civil.Date
}

// ParseDate parses an ISO YYYY-MM-DD value. An empty value yields nil.
func ParseDate(field, raw string) (*civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil || !d.IsValid() {
		return nil, &FilterError{Field: field, Reason: "expected date as YYYY-MM-DD"}
	}
	return &d, nil
}

// ParseID parses a positive entity id. An empty value yields nil.
func ParseID(field, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, &FilterError{Field: field, Reason: "expected a positive integer id"}
	}
	return &id, nil
}
