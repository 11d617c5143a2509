package models

import "fmt"

// ValidationError reports a malformed entry: unknown type or method, or
// an amount whose sign contradicts the economic convention for its type.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// CapacityExceededError is returned when a reservation would push a slot
// past its seat capacity. The attempt performs no mutation.
type CapacityExceededError struct {
	SlotUID   string
	Requested int
	Available int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("slot %s: requested %d seats, only %d available",
		e.SlotUID, e.Requested, e.Available)
}

// AlreadyClosedError is returned on a write to a closed business day or
// on a double close.
type AlreadyClosedError struct {
	BusinessDay string
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("business day %s is already closed", e.BusinessDay)
}
