package scoring

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPoints   = errors.New("point value must be positive")
	ErrOverflow        = errors.New("point snapshot overflows")
)
