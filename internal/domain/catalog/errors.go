package catalog

import "errors"

var (
	ErrNotFound      = errors.New("action type not found")
	ErrDuplicateName = errors.New("action type name already exists")
	ErrInvalidPoints = errors.New("action type points must be positive")
	ErrInvalidName   = errors.New("action type name is required")
)
