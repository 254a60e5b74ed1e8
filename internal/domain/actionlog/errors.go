package actionlog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEvent       = errors.New("invalid action event")
	ErrInactiveActionType = errors.New("action type is inactive")
	ErrProjectMismatch    = errors.New("project does not belong to developer")
	ErrUnknownReference   = errors.New("referenced entity does not exist")
	ErrKeyReuse           = errors.New("idempotency key reused with a different request")
)

// FieldError names the request field that made an event unrecordable.
// Kind is one of the sentinels above.
type FieldError struct {
	Field  string
	Reason string
	Kind   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool { return target == e.Kind }
