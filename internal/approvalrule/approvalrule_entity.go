package approvalrule

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConditionalPercentage = "percentage"
	ConditionalSpecific   = "specific"
	ConditionalHybrid     = "hybrid"
)

// ApprovalRule is the per-company routing policy. One rule per company;
// saving replaces the previous one wholesale.
type ApprovalRule struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID           uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex"`
	Name                string         `gorm:"column:name;type:varchar(255);not null"`
	IsManagerApprover   bool           `gorm:"column:is_manager_approver;default:false"`
	ConditionalType     string         `gorm:"column:conditional_type;type:varchar(20)"`
	PercentageThreshold *int           `gorm:"column:percentage_threshold"`
	SpecificApproverIDs []string       `gorm:"column:specific_approver_ids;type:jsonb;serializer:json"`
	Approvers           []ApprovalStep `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ApprovalRule) TableName() string {
	return "approval_rules"
}

// ApprovalStep is one slot in the sequential approver chain. StepOrder is
// kept dense, 0..len-1, by the service on every save.
type ApprovalStep struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	RuleID    uuid.UUID `gorm:"column:rule_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	UserName  string    `gorm:"column:user_name;type:varchar(255);not null"`
	StepOrder int       `gorm:"column:step_order;not null"`
}

func (ApprovalStep) TableName() string {
	return "approval_steps"
}

func IsValidConditionalType(t string) bool {
	switch t {
	case "", ConditionalPercentage, ConditionalSpecific, ConditionalHybrid:
		return true
	default:
		return false
	}
}

// IsSpecificApprover reports whether userID is listed in the rule's
// specific-approver set.
func (r *ApprovalRule) IsSpecificApprover(userID string) bool {
	for _, id := range r.SpecificApproverIDs {
		if id == userID {
			return true
		}
	}
	return false
}
