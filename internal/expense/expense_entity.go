package expense

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

const (
	CategoryTravel        = "travel"
	CategoryMeals         = "meals"
	CategoryAccommodation = "accommodation"
	CategorySupplies      = "supplies"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"
)

type ExpenseLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

type Expense struct {
	ID                      uuid.UUID     `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	RefNumber               string        `gorm:"column:ref_number;type:varchar(20);uniqueIndex;not null"`
	EmployeeID              uuid.UUID     `gorm:"column:employee_id;type:uuid;not null;index"`
	EmployeeName            string        `gorm:"column:employee_name;type:varchar(255);not null"`
	CompanyID               uuid.UUID     `gorm:"column:company_id;type:uuid;not null;index"`
	Amount                  float64       `gorm:"column:amount;not null"`
	Currency                string        `gorm:"column:currency;type:varchar(3);not null"`
	AmountInCompanyCurrency float64       `gorm:"column:amount_in_company_currency;not null"`
	Category                string        `gorm:"column:category;type:varchar(20);not null"`
	Description             string        `gorm:"column:description;type:text"`
	ExpenseDate             time.Time     `gorm:"column:expense_date;not null"`
	ReceiptURL              *string       `gorm:"column:receipt_url;type:text"`
	MerchantName            *string       `gorm:"column:merchant_name;type:varchar(255)"`
	Lines                   []ExpenseLine `gorm:"column:lines;type:jsonb;serializer:json"`
	Status                  string        `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	CurrentApproverIndex    int           `gorm:"column:current_approver_index;not null;default:0"`

	Actions []ApprovalAction `gorm:"foreignKey:ExpenseID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Expense) TableName() string {
	return "expenses"
}

// IsTerminal reports whether the expense has reached a final status.
// Terminal expenses never change again; history rows are append-only.
func (e *Expense) IsTerminal() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}

// ApprovalAction is one row of the append-only decision history. Rows are
// inserted and never updated or deleted. ApproverName is denormalized so
// history survives user removal.
type ApprovalAction struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ExpenseID    uuid.UUID `gorm:"column:expense_id;type:uuid;not null;index"`
	ApproverID   uuid.UUID `gorm:"column:approver_id;type:uuid;not null"`
	ApproverName string    `gorm:"column:approver_name;type:varchar(255);not null"`
	Action       string    `gorm:"column:action;type:varchar(20);not null"`
	Comment      *string   `gorm:"column:comment;type:text"`
	Timestamp    time.Time `gorm:"column:timestamp;not null;autoCreateTime"`
}

func (ApprovalAction) TableName() string {
	return "approval_actions"
}

func IsValidCategory(c string) bool {
	switch c {
	case CategoryTravel, CategoryMeals, CategoryAccommodation,
		CategorySupplies, CategoryEntertainment, CategoryOther:
		return true
	default:
		return false
	}
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// ApprovedCount counts approval actions in the history. The percentage
// condition and the progress projection both read this.
func (e *Expense) ApprovedCount() int {
	n := 0
	for _, a := range e.Actions {
		if a.Action == ActionApproved {
			n++
		}
	}
	return n
}
