package currencyerrors

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
)

var (
	// ErrConversionUnavailable means the rate source failed or the target
	// currency is not quoted. Callers decide whether to fall back.
	ErrConversionUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"currency conversion is temporarily unavailable",
		http.StatusServiceUnavailable,
	)
	ErrInvalidCurrencyCode = apperror.New(
		apperror.CodeInvalidInput,
		"currency code must be a 3-letter ISO code",
		http.StatusBadRequest,
	)
)
