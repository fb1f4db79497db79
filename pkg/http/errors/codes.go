package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeTokenRevoked           = "token_revoked"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInvalidArgument  = "invalid_argument"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Matchmaking errors
	ErrCodeAlreadyQueued   = "already_in_queue"
	ErrCodeAlreadyInMatch  = "already_in_match"
	ErrCodeEnqueueFailed   = "enqueue_failed"
	ErrCodeNotParticipant  = "not_a_participant"
	ErrCodeWrongMatchState = "wrong_match_state"
	ErrCodeInvalidMatchID  = "invalid_match_id"

	// Submission errors
	ErrCodeSubmitFailed    = "submit_failed"
	ErrCodeUnknownLanguage = "unknown_language"

	// WebSocket errors
	ErrCodeConnectionError = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
	ErrCodeRateLimited        = "rate_limited"
)
