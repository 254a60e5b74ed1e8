package model

import "errors"

// Persistence error kinds shared by the store and the domain services.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate")
	ErrForeignKey       = errors.New("referenced entity does not exist")
	ErrStoreUnavailable = errors.New("store unavailable")
)
