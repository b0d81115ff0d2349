package approval_test

import (
	"context"
	"database/sql"
	"testing"

	"go-expensio/internal/approval"
	approvalerrors "go-expensio/internal/approval/errors"
	approvalruleerrors "go-expensio/internal/approvalrule/errors"
	ruleMock "go-expensio/internal/approvalrule/mock"
	"go-expensio/internal/events"
	"go-expensio/internal/expense"
	expenseerrors "go-expensio/internal/expense/errors"
	expenseMock "go-expensio/internal/expense/mock"
	"go-expensio/internal/messaging/kafka"
	kafkaMock "go-expensio/internal/messaging/kafka/mock"
	"go-expensio/internal/user"
	userMock "go-expensio/internal/user/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  approval.Service
	expenses *expenseMock.MockRepository
	rules    *ruleMock.MockRepository
	users    *userMock.MockRepository
	outbox   *kafkaMock.MockOutboxRepository
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, _ := sqlmock.New()
	expenses := expenseMock.NewMockRepository(ctrl)
	rules := ruleMock.NewMockRepository(ctrl)
	users := userMock.NewMockRepository(ctrl)
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)

	svc := approval.NewService(db, expenses, rules, users, outbox)

	return &serviceDeps{
		db:       db,
		sqlMock:  sqlMock,
		service:  svc,
		expenses: expenses,
		rules:    rules,
		users:    users,
		outbox:   outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func (d *serviceDeps) expectTxRepos() {
	d.expenses.EXPECT().WithTx(gomock.Any()).Return(d.expenses)
	d.rules.EXPECT().WithTx(gomock.Any()).Return(d.rules)
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
}

func TestApprovalService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid action", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Decide(ctx, uuid.New().String(), uuid.New().String(), uuid.New().String(), "maybe", nil)

		assert.ErrorIs(t, err, approvalerrors.ErrInvalidDecision)
	})

	t.Run("unknown actor is refused", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New().String()
		actorID := uuid.New().String()

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID, actorID).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Decide(ctx, companyID, actorID, uuid.New().String(), expense.ActionApproved, nil)

		assert.ErrorIs(t, err, approvalerrors.ErrUnauthorizedApprover)
	})

	t.Run("missing policy is a configuration error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		actor := &user.User{ID: uuid.New(), CompanyID: companyID, Role: user.RoleManager}
		e := pendingExpense(0)

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), actor.ID.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, false)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Decide(ctx, companyID.String(), actor.ID.String(), e.ID.String(), expense.ActionApproved, nil)

		assert.ErrorIs(t, err, approvalruleerrors.ErrPolicyNotFound)
	})

	t.Run("out of turn actor is refused and nothing is written", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first, second := uuid.New(), uuid.New()
		actor := &user.User{ID: second, CompanyID: companyID, Role: user.RoleManager}
		employee := buildEmployee(nil)
		rule := buildRule([]uuid.UUID{first, second}, false)

		e := pendingExpense(0)
		e.EmployeeID = employee.ID

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), second.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, false)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.users.EXPECT().
			FindByID(ctx, employee.ID.String()).
			Return(employee, nil)

		_, err := deps.service.Decide(ctx, companyID.String(), second.String(), e.ID.String(), expense.ActionApproved, nil)

		assert.ErrorIs(t, err, approvalerrors.ErrUnauthorizedApprover)
	})

	t.Run("approval advances to the next slot", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first, second := uuid.New(), uuid.New()
		actor := &user.User{ID: first, CompanyID: companyID, Name: "Amira", Role: user.RoleManager}
		employee := buildEmployee(nil)
		rule := buildRule([]uuid.UUID{first, second}, false)

		e := pendingExpense(0)
		e.EmployeeID = employee.ID
		e.CompanyID = companyID

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), first.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, true)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.users.EXPECT().
			FindByID(ctx, employee.ID.String()).
			Return(employee, nil)

		deps.expenses.EXPECT().
			AppendAction(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, a *expense.ApprovalAction) error {
				assert.Equal(t, first, a.ApproverID)
				assert.Equal(t, "Amira", a.ApproverName)
				assert.Equal(t, expense.ActionApproved, a.Action)
				return nil
			})
		deps.expenses.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, updated *expense.Expense) error {
				assert.Equal(t, expense.StatusPending, updated.Status)
				assert.Equal(t, 1, updated.CurrentApproverIndex)
				return nil
			})
		deps.outbox.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, event kafka.OutboxEvent) error {
				assert.Equal(t, events.ExpenseDecidedTopic, event.Topic)
				assert.Equal(t, "expense_decided", event.EventType)
				assert.Equal(t, e.ID.String(), event.AggregateID)
				return nil
			}).
			Times(1)

		resp, err := deps.service.Decide(ctx, companyID.String(), first.String(), e.ID.String(), expense.ActionApproved, nil)

		assert.NoError(t, err)
		assert.Equal(t, expense.StatusPending, resp.Status)
		assert.Len(t, resp.ApprovalHistory, 1)
	})

	t.Run("last approval finalizes the expense", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		only := uuid.New()
		actor := &user.User{ID: only, CompanyID: companyID, Name: "Amira", Role: user.RoleManager}
		employee := buildEmployee(nil)
		rule := buildRule([]uuid.UUID{only}, false)

		e := pendingExpense(0)
		e.EmployeeID = employee.ID

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), only.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, true)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.users.EXPECT().
			FindByID(ctx, employee.ID.String()).
			Return(employee, nil)
		deps.expenses.EXPECT().AppendAction(ctx, gomock.Any()).Return(nil)
		deps.expenses.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, updated *expense.Expense) error {
				assert.Equal(t, expense.StatusApproved, updated.Status)
				return nil
			})
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Decide(ctx, companyID.String(), only.String(), e.ID.String(), expense.ActionApproved, nil)

		assert.NoError(t, err)
		assert.Equal(t, expense.StatusApproved, resp.Status)
	})

	t.Run("rejection is terminal immediately", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first, second := uuid.New(), uuid.New()
		actor := &user.User{ID: first, CompanyID: companyID, Role: user.RoleManager}
		employee := buildEmployee(nil)
		rule := buildRule([]uuid.UUID{first, second}, false)

		e := pendingExpense(0)
		e.EmployeeID = employee.ID
		comment := "missing receipt"

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), first.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, true)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.users.EXPECT().
			FindByID(ctx, employee.ID.String()).
			Return(employee, nil)
		deps.expenses.EXPECT().
			AppendAction(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, a *expense.ApprovalAction) error {
				assert.Equal(t, &comment, a.Comment)
				return nil
			})
		deps.expenses.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, updated *expense.Expense) error {
				assert.Equal(t, expense.StatusRejected, updated.Status)
				assert.Equal(t, 0, updated.CurrentApproverIndex)
				return nil
			})
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Decide(ctx, companyID.String(), first.String(), e.ID.String(), expense.ActionRejected, &comment)

		assert.NoError(t, err)
		assert.Equal(t, expense.StatusRejected, resp.Status)
	})

	t.Run("finalized expense refuses further decisions", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first := uuid.New()
		actor := &user.User{ID: first, CompanyID: companyID, Role: user.RoleManager}
		employee := buildEmployee(nil)
		rule := buildRule([]uuid.UUID{first}, false)

		e := pendingExpense(1)
		e.Status = expense.StatusApproved
		e.EmployeeID = employee.ID

		deps.users.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), first.String()).
			Return(actor, nil)

		expectTx(t, deps.sqlMock, false)
		deps.expectTxRepos()

		deps.expenses.EXPECT().
			FindByIDAndCompanyForUpdate(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.users.EXPECT().
			FindByID(ctx, employee.ID.String()).
			Return(employee, nil)

		_, err := deps.service.Decide(ctx, companyID.String(), first.String(), e.ID.String(), expense.ActionApproved, nil)

		assert.ErrorIs(t, err, expenseerrors.ErrExpenseFinalized)
	})
}

func TestApprovalService_PendingForApprover(t *testing.T) {
	ctx := context.Background()

	t.Run("returns only expenses whose active slot names the approver", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first, second := uuid.New(), uuid.New()
		rule := buildRule([]uuid.UUID{first, second}, false)

		emp1 := &user.User{ID: uuid.New(), CompanyID: companyID, Role: user.RoleEmployee}
		emp2 := &user.User{ID: uuid.New(), CompanyID: companyID, Role: user.RoleEmployee}

		mine := pendingExpense(0)
		mine.EmployeeID = emp1.ID
		theirs := pendingExpense(1)
		theirs.EmployeeID = emp2.ID

		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.expenses.EXPECT().
			FindPendingByCompany(ctx, companyID.String()).
			Return([]expense.Expense{*mine, *theirs}, nil)
		deps.users.EXPECT().
			FindAllByCompany(ctx, companyID.String()).
			Return([]user.User{*emp1, *emp2}, nil)

		queue, err := deps.service.PendingForApprover(ctx, companyID.String(), first.String())

		assert.NoError(t, err)
		assert.Len(t, queue, 1)
		assert.Equal(t, mine.ID.String(), queue[0].ID)
	})

	t.Run("manager sees reports waiting on the virtual manager slot", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		managerID := uuid.New()
		first := uuid.New()
		rule := buildRule([]uuid.UUID{first}, true)

		report := &user.User{ID: uuid.New(), CompanyID: companyID, Role: user.RoleEmployee, ManagerID: &managerID}

		e := pendingExpense(0)
		e.EmployeeID = report.ID

		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)
		deps.expenses.EXPECT().
			FindPendingByCompany(ctx, companyID.String()).
			Return([]expense.Expense{*e}, nil)
		deps.users.EXPECT().
			FindAllByCompany(ctx, companyID.String()).
			Return([]user.User{*report}, nil)

		queue, err := deps.service.PendingForApprover(ctx, companyID.String(), managerID.String())

		assert.NoError(t, err)
		assert.Len(t, queue, 1)
	})

	t.Run("missing policy", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New().String()

		deps.rules.EXPECT().
			FindByCompany(ctx, companyID).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.PendingForApprover(ctx, companyID, uuid.New().String())

		assert.ErrorIs(t, err, approvalruleerrors.ErrPolicyNotFound)
	})
}

func TestApprovalService_Progress(t *testing.T) {
	ctx := context.Background()

	t.Run("reports approved count over chain length", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New()
		first, second := uuid.New(), uuid.New()
		rule := buildRule([]uuid.UUID{first, second}, false)

		e := pendingExpense(1)
		e.Actions = []expense.ApprovalAction{approvedAction(first)}

		deps.expenses.EXPECT().
			FindByIDAndCompany(ctx, companyID.String(), e.ID.String()).
			Return(e, nil)
		deps.rules.EXPECT().
			FindByCompany(ctx, companyID.String()).
			Return(rule, nil)

		progress, err := deps.service.Progress(ctx, companyID.String(), e.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 1, progress.Current)
		assert.Equal(t, 2, progress.Total)
		assert.Equal(t, 50.0, progress.Percentage)
	})

	t.Run("unknown expense", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		companyID := uuid.New().String()
		expenseID := uuid.New().String()

		deps.expenses.EXPECT().
			FindByIDAndCompany(ctx, companyID, expenseID).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Progress(ctx, companyID, expenseID)

		assert.ErrorIs(t, err, expenseerrors.ErrExpenseNotFound)
	})
}
