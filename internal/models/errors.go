package models

// ErrorClass is the closed taxonomy of stream/connection failures consumed
// by the retry policy. Values are stable and surface to the UI as-is.
type ErrorClass string

const (
	ClassNone               ErrorClass = ""
	ClassNetworkUnreachable ErrorClass = "network-unreachable"
	ClassConnectionRefused  ErrorClass = "connection-refused"
	ClassDecodeError        ErrorClass = "decode-error"
	ClassServerError        ErrorClass = "server-error"
	ClassClientError        ErrorClass = "client-error"
	ClassTimeout            ErrorClass = "timeout"
	ClassFocusDenied        ErrorClass = "focus-denied"
	ClassUnknown            ErrorClass = "unknown"
)

// UserMessage returns the user-facing description for a terminal error
// state. Raw technical detail never reaches the UI.
func (c ErrorClass) UserMessage() string {
	switch c {
	case ClassNetworkUnreachable, ClassTimeout, ClassConnectionRefused:
		return "connection problem"
	case ClassServerError, ClassDecodeError, ClassClientError:
		return "stream unavailable"
	case ClassFocusDenied:
		return "another app is using audio"
	case ClassNone:
		return ""
	default:
		return "playback error"
	}
}

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error constructors.
var (
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: "NOT_FOUND", Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: "BAD_REQUEST", Message: msg, Status: 400}
	}
	ErrInternal = func(msg string) *AppError {
		return &AppError{Code: "INTERNAL", Message: msg, Status: 500}
	}
)
