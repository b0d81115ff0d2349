package expenseerrors

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
)

var (
	ErrExpenseNotFound = apperror.New(
		apperror.CodeNotFound,
		"expense not found",
		http.StatusNotFound,
	)
	ErrInvalidExpenseID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid expense id",
		http.StatusBadRequest,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"invalid expense category",
		http.StatusBadRequest,
	)
	ErrInvalidExpenseDate = apperror.New(
		apperror.CodeInvalidInput,
		"expense date must be in YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be pending, approved or rejected",
		http.StatusBadRequest,
	)
	// ErrExpenseFinalized guards terminal expenses: once approved or
	// rejected, neither routing decisions nor overrides touch them again.
	ErrExpenseFinalized = apperror.New(
		apperror.CodeInvalidState,
		"expense has already been finalized",
		http.StatusBadRequest,
	)
)
