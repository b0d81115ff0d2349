package events

import "time"

const ExpenseDecidedTopic = "expense.decision.v1"

type ExpenseDecidedEvent struct {
	EventType  string    `json:"event_type"`
	ExpenseID  string    `json:"expense_id"`
	RefNumber  string    `json:"ref_number"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	ActorID    string    `json:"actor_id"`
	Decision   string    `json:"decision"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
