package expense

import "time"

type ExpenseLineRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
}

type SubmitExpenseRequest struct {
	Amount       float64              `json:"amount" binding:"required,gt=0"`
	Currency     string               `json:"currency" binding:"required,len=3"`
	Category     string               `json:"category" binding:"required"`
	Description  string               `json:"description"`
	ExpenseDate  string               `json:"expense_date" binding:"required"`
	ReceiptURL   *string              `json:"receipt_url"`
	MerchantName *string              `json:"merchant_name"`
	Lines        []ExpenseLineRequest `json:"lines" binding:"dive"`
}

type OverrideRequest struct {
	Status  string  `json:"status" binding:"required,oneof=approved rejected"`
	Comment *string `json:"comment"`
}

type ApprovalActionResponse struct {
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	Action       string    `json:"action"`
	Comment      *string   `json:"comment,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type ExpenseResponse struct {
	ID                      string                   `json:"id"`
	RefNumber               string                   `json:"ref_number"`
	EmployeeID              string                   `json:"employee_id"`
	EmployeeName            string                   `json:"employee_name"`
	CompanyID               string                   `json:"company_id"`
	Amount                  float64                  `json:"amount"`
	Currency                string                   `json:"currency"`
	AmountInCompanyCurrency float64                  `json:"amount_in_company_currency"`
	Category                string                   `json:"category"`
	Description             string                   `json:"description,omitempty"`
	ExpenseDate             string                   `json:"expense_date"`
	ReceiptURL              *string                  `json:"receipt_url,omitempty"`
	MerchantName            *string                  `json:"merchant_name,omitempty"`
	Lines                   []ExpenseLine            `json:"lines,omitempty"`
	Status                  string                   `json:"status"`
	CurrentApproverIndex    int                      `json:"current_approver_index"`
	ApprovalHistory         []ApprovalActionResponse `json:"approval_history"`
	CreatedAt               time.Time                `json:"created_at"`
	UpdatedAt               time.Time                `json:"updated_at"`
}
