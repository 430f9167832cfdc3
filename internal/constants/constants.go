package constants

// ContextKeyUserID is the gin context key holding the authenticated user ID.
const ContextKeyUserID = "user_id"

const (
	// MinPasswordLength is the minimum accepted password length at registration.
	MinPasswordLength = 8

	// MaxUploadBytes caps the decoded size of a single uploaded file.
	MaxUploadBytes = 20 << 20
)
