package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInvalidOrder is the sentinel wrapped by every validation failure.
var ErrInvalidOrder = errors.New("invalid order")

// ValidationError describes which order field failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidOrder).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// Validate checks the order as it arrives from an outer surface. The pricing
// code itself does not call it.
func (o *Order) Validate() error {
	if o.ClientType == "" {
		return &ValidationError{Field: "client_type", Reason: "required"}
	}
	if o.Total.IsNegative() {
		return &ValidationError{Field: "total", Reason: "must not be negative"}
	}
	if o.ItemsCount < 0 {
		return &ValidationError{Field: "items_count", Reason: "must not be negative"}
	}
	return nil
}
