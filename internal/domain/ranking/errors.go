package ranking

import (
	"errors"
	"fmt"

	"github.com/okian/imobrank/internal/domain/model"
)

// Sentinel kinds for ranking errors.
var (
	// ErrMissingRequiredScope is returned when a developer scoped ranking is
	// requested without a developer id.
	ErrMissingRequiredScope = errors.New("missing required scope")

	// ErrInvalidFilter covers malformed dates, inverted ranges and
	// references to entities that do not exist.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrStoreUnavailable is shared with the persistence layer.
	ErrStoreUnavailable = model.ErrStoreUnavailable

	// ErrInconsistentRead marks concurrent reads that observed different
	// snapshots of the event log.
	ErrInconsistentRead = errors.New("inconsistent read")
)

// FilterError reports a rejected filter field.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidFilter) hold.
func (e *FilterError) Is(target error) bool { return target == ErrInvalidFilter }

// StoreError wraps a failed store read.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

// Is makes errors.Is(err, ErrStoreUnavailable) hold.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
