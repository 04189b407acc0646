package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so wrapped copies still compare equal
// to their sentinel
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error carrying an underlying cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound                = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists           = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput            = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict     = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInsufficientStock       = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrReservationExpired      = NewDomainError("RESERVATION_EXPIRED", "Reservation expired before the order was confirmed")
	ErrInvalidReservationState = NewDomainError("INVALID_RESERVATION_STATE", "Reservation is not in a state that allows this operation")
	ErrInvalidStateTransition  = NewDomainError("INVALID_STATE_TRANSITION", "Order status transition is not allowed")
	ErrComputationFailed       = NewDomainError("COMPUTATION_FAILED", "Cached computation failed")
)
