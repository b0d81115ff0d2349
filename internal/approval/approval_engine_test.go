package approval_test

import (
	"testing"

	"go-expensio/internal/approval"
	approvalerrors "go-expensio/internal/approval/errors"
	"go-expensio/internal/approvalrule"
	"go-expensio/internal/expense"
	expenseerrors "go-expensio/internal/expense/errors"
	"go-expensio/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func buildRule(approverIDs []uuid.UUID, managerFirst bool) *approvalrule.ApprovalRule {
	rule := &approvalrule.ApprovalRule{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		Name:              "default",
		IsManagerApprover: managerFirst,
	}
	for i, id := range approverIDs {
		rule.Approvers = append(rule.Approvers, approvalrule.ApprovalStep{
			ID:        uuid.New(),
			RuleID:    rule.ID,
			UserID:    id,
			StepOrder: i,
		})
	}
	return rule
}

func buildEmployee(managerID *uuid.UUID) *user.User {
	return &user.User{
		ID:        uuid.New(),
		Role:      user.RoleEmployee,
		ManagerID: managerID,
	}
}

func pendingExpense(index int) *expense.Expense {
	return &expense.Expense{
		ID:                   uuid.New(),
		Status:               expense.StatusPending,
		CurrentApproverIndex: index,
	}
}

func approvedAction(approverID uuid.UUID) expense.ApprovalAction {
	return expense.ApprovalAction{
		ID:         uuid.New(),
		ApproverID: approverID,
		Action:     expense.ActionApproved,
	}
}

func TestEffectiveChain(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	managerID := uuid.New()

	t.Run("manager slot prepended without consuming approvers", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, true)
		employee := buildEmployee(&managerID)

		chain := approval.EffectiveChain(rule, employee)

		assert.Len(t, chain, 3)
		assert.True(t, chain[0].IsManagerSlot)
		assert.Equal(t, managerID.String(), chain[0].UserID)
		assert.Equal(t, a.String(), chain[1].UserID)
		assert.Equal(t, b.String(), chain[2].UserID)
	})

	t.Run("manager slot skipped when employee has no manager", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, true)
		employee := buildEmployee(nil)

		chain := approval.EffectiveChain(rule, employee)

		assert.Len(t, chain, 2)
		assert.Equal(t, a.String(), chain[0].UserID)
	})

	t.Run("no manager slot when rule does not ask for one", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, false)
		employee := buildEmployee(&managerID)

		chain := approval.EffectiveChain(rule, employee)

		assert.Len(t, chain, 2)
		assert.False(t, chain[0].IsManagerSlot)
	})
}

func TestActiveApprover(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rule := buildRule([]uuid.UUID{a, b}, false)
	employee := buildEmployee(nil)

	t.Run("points at the current slot", func(t *testing.T) {
		slot, ok := approval.ActiveApprover(pendingExpense(1), rule, employee)

		assert.True(t, ok)
		assert.Equal(t, b.String(), slot.UserID)
	})

	t.Run("exhausted chain has no active approver", func(t *testing.T) {
		_, ok := approval.ActiveApprover(pendingExpense(2), rule, employee)

		assert.False(t, ok)
	})

	t.Run("empty chain has no active approver", func(t *testing.T) {
		empty := buildRule(nil, false)
		_, ok := approval.ActiveApprover(pendingExpense(0), empty, employee)

		assert.False(t, ok)
	})
}

func TestAuthorize(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	managerID := uuid.New()

	t.Run("active approver may act", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, false)
		err := approval.Authorize(pendingExpense(0), rule, buildEmployee(nil), a.String(), user.RoleManager)

		assert.NoError(t, err)
	})

	t.Run("out of turn approver is refused", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, false)
		err := approval.Authorize(pendingExpense(0), rule, buildEmployee(nil), b.String(), user.RoleManager)

		assert.ErrorIs(t, err, approvalerrors.ErrUnauthorizedApprover)
	})

	t.Run("admin may stand in on the manager slot", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a}, true)
		adminID := uuid.New()
		err := approval.Authorize(pendingExpense(0), rule, buildEmployee(&managerID), adminID.String(), user.RoleAdmin)

		assert.NoError(t, err)
	})

	t.Run("admin gets no shortcut on configured slots", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a}, false)
		adminID := uuid.New()
		err := approval.Authorize(pendingExpense(0), rule, buildEmployee(nil), adminID.String(), user.RoleAdmin)

		assert.ErrorIs(t, err, approvalerrors.ErrUnauthorizedApprover)
	})

	t.Run("listed specific approver may act out of turn", func(t *testing.T) {
		cfo := uuid.New()
		rule := buildRule([]uuid.UUID{a, b}, false)
		rule.ConditionalType = approvalrule.ConditionalSpecific
		rule.SpecificApproverIDs = []string{cfo.String()}

		err := approval.Authorize(pendingExpense(1), rule, buildEmployee(nil), cfo.String(), user.RoleManager)

		assert.NoError(t, err)
	})

	t.Run("terminal expense reports its state before permissions", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a}, false)
		e := pendingExpense(1)
		e.Status = expense.StatusApproved

		err := approval.Authorize(e, rule, buildEmployee(nil), a.String(), user.RoleManager)

		assert.ErrorIs(t, err, expenseerrors.ErrExpenseFinalized)
	})
}

func TestDecide_RejectionIsTerminal(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rule := buildRule([]uuid.UUID{a, b}, false)
	employee := buildEmployee(nil)

	e := pendingExpense(0)
	e.Actions = []expense.ApprovalAction{{ApproverID: a, Action: expense.ActionRejected}}

	outcome := approval.Decide(e, rule, employee, a.String(), expense.ActionRejected)

	assert.Equal(t, expense.StatusRejected, outcome.Status)
	assert.Equal(t, 0, outcome.CurrentApproverIndex)
}

func TestDecide_SequentialAdvanceAndExhaustion(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	rule := buildRule([]uuid.UUID{a, b, c}, false)
	employee := buildEmployee(nil)

	e := pendingExpense(0)

	for i, approver := range []uuid.UUID{a, b, c} {
		e.Actions = append(e.Actions, approvedAction(approver))
		outcome := approval.Decide(e, rule, employee, approver.String(), expense.ActionApproved)
		e.Status = outcome.Status
		e.CurrentApproverIndex = outcome.CurrentApproverIndex

		if i < 2 {
			assert.Equal(t, expense.StatusPending, e.Status)
			assert.Equal(t, i+1, e.CurrentApproverIndex)
		}
	}

	assert.Equal(t, expense.StatusApproved, e.Status)
	assert.Equal(t, 3, e.CurrentApproverIndex)
}

func TestDecide_PercentageThreshold(t *testing.T) {
	approvers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	rule := buildRule(approvers, false)
	rule.ConditionalType = approvalrule.ConditionalPercentage
	threshold := 60
	rule.PercentageThreshold = &threshold
	employee := buildEmployee(nil)

	t.Run("below threshold keeps routing", func(t *testing.T) {
		e := pendingExpense(1)
		e.Actions = []expense.ApprovalAction{
			approvedAction(approvers[0]),
			approvedAction(approvers[1]),
		}

		outcome := approval.Decide(e, rule, employee, approvers[1].String(), expense.ActionApproved)

		assert.Equal(t, expense.StatusPending, outcome.Status)
		assert.Equal(t, 2, outcome.CurrentApproverIndex)
	})

	t.Run("third of five approvals crosses 60 percent", func(t *testing.T) {
		e := pendingExpense(2)
		e.Actions = []expense.ApprovalAction{
			approvedAction(approvers[0]),
			approvedAction(approvers[1]),
			approvedAction(approvers[2]),
		}

		outcome := approval.Decide(e, rule, employee, approvers[2].String(), expense.ActionApproved)

		assert.Equal(t, expense.StatusApproved, outcome.Status)
		assert.True(t, outcome.AutoApproved)
	})
}

func TestDecide_SpecificApproverShortCircuit(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cfo := uuid.New()
	rule := buildRule([]uuid.UUID{a, b}, false)
	rule.ConditionalType = approvalrule.ConditionalSpecific
	rule.SpecificApproverIDs = []string{cfo.String()}
	employee := buildEmployee(nil)

	e := pendingExpense(0)
	e.Actions = []expense.ApprovalAction{approvedAction(cfo)}

	outcome := approval.Decide(e, rule, employee, cfo.String(), expense.ActionApproved)

	assert.Equal(t, expense.StatusApproved, outcome.Status)
	assert.True(t, outcome.AutoApproved)
}

func TestDecide_HybridIsEitherCondition(t *testing.T) {
	approvers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	cfo := uuid.New()
	rule := buildRule(approvers, false)
	rule.ConditionalType = approvalrule.ConditionalHybrid
	threshold := 75
	rule.PercentageThreshold = &threshold
	rule.SpecificApproverIDs = []string{cfo.String()}
	employee := buildEmployee(nil)

	t.Run("specific branch fires below the percentage", func(t *testing.T) {
		e := pendingExpense(0)
		e.Actions = []expense.ApprovalAction{approvedAction(cfo)}

		outcome := approval.Decide(e, rule, employee, cfo.String(), expense.ActionApproved)

		assert.Equal(t, expense.StatusApproved, outcome.Status)
		assert.True(t, outcome.AutoApproved)
	})

	t.Run("percentage branch fires without a specific approver", func(t *testing.T) {
		e := pendingExpense(2)
		e.Actions = []expense.ApprovalAction{
			approvedAction(approvers[0]),
			approvedAction(approvers[1]),
			approvedAction(approvers[2]),
		}

		outcome := approval.Decide(e, rule, employee, approvers[2].String(), expense.ActionApproved)

		assert.Equal(t, expense.StatusApproved, outcome.Status)
		assert.True(t, outcome.AutoApproved)
	})
}

func TestDecide_ManagerFirstFallback(t *testing.T) {
	a := uuid.New()
	rule := buildRule([]uuid.UUID{a}, true)
	employee := buildEmployee(nil)

	e := pendingExpense(0)
	e.Actions = []expense.ApprovalAction{approvedAction(a)}

	outcome := approval.Decide(e, rule, employee, a.String(), expense.ActionApproved)

	assert.Equal(t, expense.StatusApproved, outcome.Status)
	assert.Equal(t, 1, outcome.CurrentApproverIndex)
}

func TestDecide_ManagerApprovalAdvancesToConfiguredChain(t *testing.T) {
	a := uuid.New()
	managerID := uuid.New()
	rule := buildRule([]uuid.UUID{a}, true)
	employee := buildEmployee(&managerID)

	e := pendingExpense(0)
	e.Actions = []expense.ApprovalAction{approvedAction(managerID)}

	outcome := approval.Decide(e, rule, employee, managerID.String(), expense.ActionApproved)

	assert.Equal(t, expense.StatusPending, outcome.Status)
	assert.Equal(t, 1, outcome.CurrentApproverIndex)

	slot, ok := approval.ActiveApprover(&expense.Expense{
		Status:               outcome.Status,
		CurrentApproverIndex: outcome.CurrentApproverIndex,
	}, rule, employee)
	assert.True(t, ok)
	assert.Equal(t, a.String(), slot.UserID)
}

func TestProgress(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("counts approvals against configured approvers", func(t *testing.T) {
		rule := buildRule([]uuid.UUID{a, b}, false)
		e := pendingExpense(1)
		e.Actions = []expense.ApprovalAction{approvedAction(a)}

		current, total, percentage := approval.Progress(e, rule)

		assert.Equal(t, 1, current)
		assert.Equal(t, 2, total)
		assert.InDelta(t, 50.0, percentage, 0.001)
	})

	t.Run("zero approvers yields zero percentage", func(t *testing.T) {
		rule := buildRule(nil, true)
		e := pendingExpense(0)

		current, total, percentage := approval.Progress(e, rule)

		assert.Equal(t, 0, current)
		assert.Equal(t, 0, total)
		assert.Zero(t, percentage)
	})
}

// Full walk of a two-approver chain from submission to final approval.
func TestApprovalFlow_EndToEnd(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rule := buildRule([]uuid.UUID{a, b}, false)
	employee := buildEmployee(nil)

	e := pendingExpense(0)
	assert.Equal(t, expense.StatusPending, e.Status)

	// A is active, B is not.
	assert.NoError(t, approval.Authorize(e, rule, employee, a.String(), user.RoleManager))
	assert.ErrorIs(t,
		approval.Authorize(e, rule, employee, b.String(), user.RoleManager),
		approvalerrors.ErrUnauthorizedApprover,
	)

	e.Actions = append(e.Actions, approvedAction(a))
	outcome := approval.Decide(e, rule, employee, a.String(), expense.ActionApproved)
	e.Status = outcome.Status
	e.CurrentApproverIndex = outcome.CurrentApproverIndex

	assert.Equal(t, expense.StatusPending, e.Status)
	assert.Equal(t, 1, e.CurrentApproverIndex)

	// Now B is active.
	assert.NoError(t, approval.Authorize(e, rule, employee, b.String(), user.RoleManager))

	e.Actions = append(e.Actions, approvedAction(b))
	outcome = approval.Decide(e, rule, employee, b.String(), expense.ActionApproved)
	e.Status = outcome.Status
	e.CurrentApproverIndex = outcome.CurrentApproverIndex

	assert.Equal(t, expense.StatusApproved, e.Status)
	assert.Equal(t, 2, e.CurrentApproverIndex)
	assert.Len(t, e.Actions, 2)

	// Nobody can touch it anymore.
	assert.ErrorIs(t,
		approval.Authorize(e, rule, employee, a.String(), user.RoleManager),
		expenseerrors.ErrExpenseFinalized,
	)
}
