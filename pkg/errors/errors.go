package errors

import "fmt"

// ErrValidation indicates a malformed or missing request field.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates authentication failure
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrPolicyViolation indicates a business-rule rejection (coupon invalid,
// address outside the serviceable area, and the like).
type ErrPolicyViolation struct {
	Reason string
}

func (e *ErrPolicyViolation) Error() string {
	return e.Reason
}

// ErrInvalidStateTransition indicates an illegal order status change
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrConflict indicates the record was modified concurrently and the
// caller's write was not applied.
type ErrConflict struct {
	Resource string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s was modified concurrently", e.Resource)
}
