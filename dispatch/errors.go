package dispatch

import "fmt"

// StatusCode classifies an ActionError. The HTTP layer maps it to a
// response status.
type StatusCode int

const (
	StatusInvalidArgument StatusCode = iota
	StatusFailedPrecondition
)

// Error message constants for bag actions.
const (
	ErrMsgUnknownAction = "Unknown action"
	ErrMsgIDRequired    = "Item id is required"
	ErrMsgUnknownItem   = "Unknown product"
)

func (s StatusCode) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailedPrecondition:
		return "FAILED_PRECONDITION"
	default:
		return "UNKNOWN"
	}
}

// ActionError reports a request the dispatcher refused.
type ActionError struct {
	Code    StatusCode
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

// NewInvalidArgument creates an ActionError for malformed requests.
func NewInvalidArgument(message string) *ActionError {
	return &ActionError{Code: StatusInvalidArgument, Message: message}
}

// NewFailedPrecondition creates an ActionError for requests the bag
// cannot satisfy in its current state.
func NewFailedPrecondition(message string) *ActionError {
	return &ActionError{Code: StatusFailedPrecondition, Message: message}
}

// NewInvalidArgumentf creates an ActionError with a formatted message.
func NewInvalidArgumentf(format string, args ...interface{}) *ActionError {
	return &ActionError{Code: StatusInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
