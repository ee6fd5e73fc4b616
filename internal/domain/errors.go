package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("authentication required")
)

// Conflict refinements. Both satisfy errors.Is(err, ErrConflict).
var (
	ErrDuplicateOrderNumber = fmt.Errorf("%w: order number already taken", ErrConflict)
	ErrIllegalTransition    = fmt.Errorf("%w: illegal status transition", ErrConflict)
)
