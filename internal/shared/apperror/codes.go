package apperror

// Stable error codes carried in the response envelope. Clients branch on
// these, not on messages.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	// CodeInvalidState marks operations refused by lifecycle rules, such
	// as deciding on an already finalized expense.
	CodeInvalidState = "INVALID_STATE"

	CodeInternalError = "INTERNAL_ERROR"
	// CodeServiceUnavailable covers degraded collaborators, currently the
	// exchange-rate source.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
