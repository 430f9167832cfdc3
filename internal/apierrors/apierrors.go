package apierrors

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Resource errors. NOT_FOUND is also used when an entity exists but is
	// not owned by the caller, so existence is never leaked.
	ErrCodeNotFound = "NOT_FOUND"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Service errors
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUploadFailed  = "UPLOAD_FAILED"
)

// APIError is an error safe to return to clients verbatim.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// New creates a new APIError
func New(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// Predefined errors
var (
	ErrUnauthorized           = New(ErrCodeUnauthorized, "not authorized")
	ErrInvalidCredentials     = New(ErrCodeInvalidCredentials, "invalid credentials")
	ErrUserNotFound           = New(ErrCodeNotFound, "user not found")
	ErrProjectNotFound        = New(ErrCodeNotFound, "project not found")
	ErrCardNotFound           = New(ErrCodeNotFound, "card not found")
	ErrNotFoundOrUnauthorized = New(ErrCodeNotFound, "not found or not authorized")
	ErrInternal               = New(ErrCodeInternalError, "internal server error")
)
