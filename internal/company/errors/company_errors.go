package companyerrors

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrCompanyNotFound = apperror.New(
		apperror.CodeNotFound,
		"company not found",
		http.StatusNotFound,
	)
	ErrInvalidCurrency = apperror.New(
		apperror.CodeInvalidInput,
		"currency must be a 3-letter ISO code",
		http.StatusBadRequest,
	)
)
