package approvalruleerrors

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
)

var (
	// ErrPolicyNotFound is distinct from a generic not-found: routing must
	// report a missing policy, never silently approve.
	ErrPolicyNotFound = apperror.New(
		apperror.CodeNotFound,
		"no approval rule configured for this company",
		http.StatusNotFound,
	)
	ErrInvalidConditionalType = apperror.New(
		apperror.CodeInvalidInput,
		"conditional type must be percentage, specific or hybrid",
		http.StatusBadRequest,
	)
	ErrInvalidThreshold = apperror.New(
		apperror.CodeInvalidInput,
		"percentage threshold must be between 1 and 100",
		http.StatusBadRequest,
	)
	ErrThresholdRequired = apperror.New(
		apperror.CodeInvalidInput,
		"percentage threshold is required for percentage and hybrid rules",
		http.StatusBadRequest,
	)
	ErrApproverNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"approver does not belong to this company",
		http.StatusBadRequest,
	)
	ErrDuplicateApprover = apperror.New(
		apperror.CodeInvalidInput,
		"approver appears more than once in the chain",
		http.StatusBadRequest,
	)
)
