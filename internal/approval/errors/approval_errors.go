package approvalerrors

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
)

var (
	// ErrUnauthorizedApprover is returned before any state change: the
	// actor is neither the active approver nor otherwise entitled to
	// decide this expense.
	ErrUnauthorizedApprover = apperror.New(
		apperror.CodeForbidden,
		"you are not the active approver for this expense",
		http.StatusForbidden,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be approved or rejected",
		http.StatusBadRequest,
	)
)
