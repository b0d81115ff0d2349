package approval

import (
	"go-expensio/internal/approvalrule"
	approvalerrors "go-expensio/internal/approval/errors"
	"go-expensio/internal/expense"
	expenseerrors "go-expensio/internal/expense/errors"
	"go-expensio/internal/user"
)

// Slot is one position in the effective approver chain. The manager slot
// is virtual: it is prepended when the rule demands manager-first approval
// and the employee actually has a manager, and it does not consume the
// first configured approver.
type Slot struct {
	UserID        string
	UserName      string
	IsManagerSlot bool
}

// Outcome is the pure result of applying one decision. The service layer
// persists it; nothing in here touches storage.
type Outcome struct {
	Status               string
	CurrentApproverIndex int
	AutoApproved         bool
}

// EffectiveChain builds the ordered approver slots for an expense owner.
// Manager resolution is one hop: the employee's direct manager or nothing.
func EffectiveChain(rule *approvalrule.ApprovalRule, employee *user.User) []Slot {
	chain := make([]Slot, 0, len(rule.Approvers)+1)

	if rule.IsManagerApprover && employee.ManagerID != nil {
		chain = append(chain, Slot{
			UserID:        employee.ManagerID.String(),
			IsManagerSlot: true,
		})
	}

	for _, step := range rule.Approvers {
		chain = append(chain, Slot{
			UserID:   step.UserID.String(),
			UserName: step.UserName,
		})
	}

	return chain
}

// ActiveApprover returns the slot the expense currently waits on. A chain
// that is exhausted, or empty from the start, has no active approver.
func ActiveApprover(e *expense.Expense, rule *approvalrule.ApprovalRule, employee *user.User) (Slot, bool) {
	chain := EffectiveChain(rule, employee)
	if e.CurrentApproverIndex < 0 || e.CurrentApproverIndex >= len(chain) {
		return Slot{}, false
	}
	return chain[e.CurrentApproverIndex], true
}

// Authorize decides whether actorID may act on the expense right now.
// Entitled are: the active approver; a company admin standing in on the
// manager slot; and any listed specific approver, in or out of turn.
// Terminal expenses fail first so a finalized expense reports its state
// rather than a permission problem.
func Authorize(e *expense.Expense, rule *approvalrule.ApprovalRule, employee *user.User, actorID, actorRole string) error {
	if e.IsTerminal() {
		return expenseerrors.ErrExpenseFinalized
	}

	slot, ok := ActiveApprover(e, rule, employee)
	if ok {
		if slot.UserID == actorID {
			return nil
		}
		if slot.IsManagerSlot && actorRole == user.RoleAdmin {
			return nil
		}
	}

	if conditionalUsesSpecific(rule) && rule.IsSpecificApprover(actorID) {
		return nil
	}

	return approvalerrors.ErrUnauthorizedApprover
}

// Decide applies one decision to an expense whose history already contains
// the actor's action row. Rejection is unconditionally terminal. Approval
// first checks the conditional rule, then advances the chain; walking off
// the end of the effective chain finalizes the expense as approved.
func Decide(e *expense.Expense, rule *approvalrule.ApprovalRule, employee *user.User, actorID, action string) Outcome {
	if action == expense.ActionRejected {
		return Outcome{
			Status:               expense.StatusRejected,
			CurrentApproverIndex: e.CurrentApproverIndex,
		}
	}

	if shouldAutoApprove(e, rule, actorID) {
		return Outcome{
			Status:               expense.StatusApproved,
			CurrentApproverIndex: e.CurrentApproverIndex,
			AutoApproved:         true,
		}
	}

	next := e.CurrentApproverIndex + 1
	if next >= len(EffectiveChain(rule, employee)) {
		return Outcome{
			Status:               expense.StatusApproved,
			CurrentApproverIndex: next,
		}
	}

	return Outcome{
		Status:               expense.StatusPending,
		CurrentApproverIndex: next,
	}
}

// Progress projects the approval state for display: approvals granted so
// far against the configured approver count. The virtual manager slot does
// not widen the denominator.
func Progress(e *expense.Expense, rule *approvalrule.ApprovalRule) (current, total int, percentage float64) {
	current = e.ApprovedCount()
	total = len(rule.Approvers)
	if total > 0 {
		percentage = float64(current) / float64(total) * 100
	}
	return current, total, percentage
}

// shouldAutoApprove evaluates the conditional rule against a history that
// already includes the current approval.
func shouldAutoApprove(e *expense.Expense, rule *approvalrule.ApprovalRule, actorID string) bool {
	if rule.ConditionalType == "" {
		return false
	}

	if conditionalUsesSpecific(rule) {
		if rule.IsSpecificApprover(actorID) {
			return true
		}
		for _, a := range e.Actions {
			if a.Action == expense.ActionApproved && rule.IsSpecificApprover(a.ApproverID.String()) {
				return true
			}
		}
	}

	if conditionalUsesPercentage(rule) && rule.PercentageThreshold != nil && len(rule.Approvers) > 0 {
		pct := float64(e.ApprovedCount()) / float64(len(rule.Approvers)) * 100
		if pct >= float64(*rule.PercentageThreshold) {
			return true
		}
	}

	return false
}

func conditionalUsesSpecific(rule *approvalrule.ApprovalRule) bool {
	return rule.ConditionalType == approvalrule.ConditionalSpecific ||
		rule.ConditionalType == approvalrule.ConditionalHybrid
}

func conditionalUsesPercentage(rule *approvalrule.ApprovalRule) bool {
	return rule.ConditionalType == approvalrule.ConditionalPercentage ||
		rule.ConditionalType == approvalrule.ConditionalHybrid
}
