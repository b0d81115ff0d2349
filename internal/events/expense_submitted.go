package events

import "time"

const ExpenseSubmittedTopic = "expense.lifecycle.v1"

type ExpenseSubmittedEvent struct {
	EventType  string    `json:"event_type"`
	ExpenseID  string    `json:"expense_id"`
	RefNumber  string    `json:"ref_number"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}
