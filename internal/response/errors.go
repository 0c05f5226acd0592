package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Exam delivery ─────────────────────────────────────────────────
	ErrKeyNotFound      ErrCode = "KEY_NOT_FOUND"
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrIdentityMismatch ErrCode = "IDENTITY_MISMATCH"
	ErrAlreadyCompleted ErrCode = "ALREADY_COMPLETED"
	ErrSessionMismatch  ErrCode = "SESSION_MISMATCH"
	ErrNotCompleted     ErrCode = "NOT_COMPLETED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Identity and already-completed failures carry specific wording: a student
// needs to know whether to recheck their name/phone or to understand the exam
// is already over. Everything else stays generic so no attempt state leaks.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	case ErrKeyNotFound:
		return "This exam link is invalid or no longer available."
	case ErrSessionNotFound:
		return "No exam attempt was found for this link."
	case ErrIdentityMismatch:
		return "No student matches that name and phone number. Please check both and try again."
	case ErrAlreadyCompleted:
		return "This exam has already been submitted. Each student may attempt it only once."
	case ErrSessionMismatch:
		return "This attempt does not belong to the submitted exam or student."
	case ErrNotCompleted:
		return "Results are available after the exam is submitted."

	case ErrNotFound:
		return "The requested resource was not found."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
