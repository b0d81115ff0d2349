package ocr

import "go-expensio/internal/expense"

type ScanRequest struct {
	RawText string `json:"raw_text" binding:"required"`
}

// ScanResult is the typed extraction of a receipt. Every field an expense
// form can prefill is explicit; the raw text rides along for auditing.
type ScanResult struct {
	Amount       *float64              `json:"amount,omitempty"`
	Date         *string               `json:"date,omitempty"`
	MerchantName *string               `json:"merchant_name,omitempty"`
	Category     *string               `json:"category,omitempty"`
	Description  *string               `json:"description,omitempty"`
	Lines        []expense.ExpenseLine `json:"lines,omitempty"`
	RawText      string                `json:"raw_text"`
}
