package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	approvalerrors "go-expensio/internal/approval/errors"
	"go-expensio/internal/approvalrule"
	approvalruleerrors "go-expensio/internal/approvalrule/errors"
	"go-expensio/internal/events"
	"go-expensio/internal/expense"
	expenseerrors "go-expensio/internal/expense/errors"
	"go-expensio/internal/messaging/kafka"
	"go-expensio/internal/shared/contextutil"
	"go-expensio/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_service.go -destination=mock/approval_service_mock.go -package=mock
type Service interface {
	// Decide applies one approve or reject action inside a single
	// transaction. The expense row is locked for its duration, so
	// concurrent decisions on the same expense serialize.
	Decide(ctx context.Context, companyID, actorID, expenseID, action string, comment *string) (expense.ExpenseResponse, error)
	PendingForApprover(ctx context.Context, companyID, approverID string) ([]expense.ExpenseResponse, error)
	Progress(ctx context.Context, companyID, expenseID string) (ProgressResponse, error)
}

type service struct {
	db          *sql.DB
	expenseRepo expense.Repository
	ruleRepo    approvalrule.Repository
	userRepo    user.Repository
	outboxRepo  kafka.OutboxRepository
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	expenseRepo expense.Repository,
	ruleRepo approvalrule.Repository,
	userRepo user.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("approval.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.service")
	}
	return &service{
		db:          db,
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		logger:      l,
	}
}

func (s *service) Decide(ctx context.Context, companyID, actorID, expenseID, action string, comment *string) (expense.ExpenseResponse, error) {
	s.logger.Debug("decision requested",
		zap.String("expense_id", expenseID),
		zap.String("actor_id", actorID),
		zap.String("action", action),
	)

	if action != expense.ActionApproved && action != expense.ActionRejected {
		return expense.ExpenseResponse{}, approvalerrors.ErrInvalidDecision
	}

	actor, err := s.userRepo.FindByIDAndCompany(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return expense.ExpenseResponse{}, approvalerrors.ErrUnauthorizedApprover
		}
		return expense.ExpenseResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return expense.ExpenseResponse{}, err
	}
	defer tx.Rollback()

	qtxExpense := s.expenseRepo.WithTx(tx)
	qtxRule := s.ruleRepo.WithTx(tx)
	qtxOutbox := s.outboxRepo.WithTx(tx)

	e, err := qtxExpense.FindByIDAndCompanyForUpdate(ctx, companyID, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return expense.ExpenseResponse{}, expenseerrors.ErrExpenseNotFound
		}
		return expense.ExpenseResponse{}, err
	}

	rule, err := qtxRule.FindByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A missing policy is a reportable configuration error.
			// Nothing is ever approved by default.
			return expense.ExpenseResponse{}, approvalruleerrors.ErrPolicyNotFound
		}
		return expense.ExpenseResponse{}, err
	}

	owner, err := s.userRepo.FindByID(ctx, e.EmployeeID.String())
	if err != nil {
		return expense.ExpenseResponse{}, err
	}

	if err := Authorize(e, rule, owner, actorID, actor.Role); err != nil {
		s.logger.Warn("decision refused",
			zap.String("expense_id", expenseID),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
		return expense.ExpenseResponse{}, err
	}

	// History goes first: the engine evaluates conditional rules against
	// a history that already includes this action.
	historyRow := &expense.ApprovalAction{
		ID:           uuid.New(),
		ExpenseID:    e.ID,
		ApproverID:   actor.ID,
		ApproverName: actor.Name,
		Action:       action,
		Comment:      comment,
		Timestamp:    time.Now().UTC(),
	}
	if err := qtxExpense.AppendAction(ctx, historyRow); err != nil {
		return expense.ExpenseResponse{}, err
	}
	e.Actions = append(e.Actions, *historyRow)

	outcome := Decide(e, rule, owner, actorID, action)
	e.Status = outcome.Status
	e.CurrentApproverIndex = outcome.CurrentApproverIndex

	if err := qtxExpense.Update(ctx, e); err != nil {
		return expense.ExpenseResponse{}, err
	}

	if err := s.enqueueDecidedEvent(ctx, qtxOutbox, e, actorID, action); err != nil {
		return expense.ExpenseResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return expense.ExpenseResponse{}, err
	}

	s.logger.Info("decision applied",
		zap.String("expense_id", e.ID.String()),
		zap.String("actor_id", actorID),
		zap.String("action", action),
		zap.String("status", e.Status),
		zap.Int("current_approver_index", e.CurrentApproverIndex),
		zap.Bool("auto_approved", outcome.AutoApproved),
	)
	return expense.MapToResponse(e), nil
}

// PendingForApprover lists pending expenses the user can act on right now:
// every pending expense whose active slot names them, which covers both
// configured chain positions and the virtual manager slot of their reports.
func (s *service) PendingForApprover(ctx context.Context, companyID, approverID string) ([]expense.ExpenseResponse, error) {
	rule, err := s.ruleRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, approvalruleerrors.ErrPolicyNotFound
		}
		return nil, err
	}

	pendings, err := s.expenseRepo.FindPendingByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	owners, err := s.companyUsersByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(pendings))
	queue := make([]expense.ExpenseResponse, 0, len(pendings))
	for i := range pendings {
		e := &pendings[i]
		if seen[e.ID.String()] {
			continue
		}

		owner, ok := owners[e.EmployeeID.String()]
		if !ok {
			continue
		}

		slot, active := ActiveApprover(e, rule, owner)
		if !active || slot.UserID != approverID {
			continue
		}

		seen[e.ID.String()] = true
		queue = append(queue, expense.MapToResponse(e))
	}

	return queue, nil
}

func (s *service) Progress(ctx context.Context, companyID, expenseID string) (ProgressResponse, error) {
	e, err := s.expenseRepo.FindByIDAndCompany(ctx, companyID, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProgressResponse{}, expenseerrors.ErrExpenseNotFound
		}
		return ProgressResponse{}, err
	}

	rule, err := s.ruleRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProgressResponse{}, approvalruleerrors.ErrPolicyNotFound
		}
		return ProgressResponse{}, err
	}

	current, total, percentage := Progress(e, rule)
	return ProgressResponse{Current: current, Total: total, Percentage: percentage}, nil
}

func (s *service) companyUsersByID(ctx context.Context, companyID string) (map[string]*user.User, error) {
	users, err := s.userRepo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*user.User, len(users))
	for i := range users {
		byID[users[i].ID.String()] = &users[i]
	}
	return byID, nil
}

func (s *service) enqueueDecidedEvent(ctx context.Context, outbox kafka.OutboxRepository, e *expense.Expense, actorID, decision string) error {
	event := events.ExpenseDecidedEvent{
		EventType:  "expense_decided",
		ExpenseID:  e.ID.String(),
		RefNumber:  e.RefNumber,
		EmployeeID: e.EmployeeID.String(),
		CompanyID:  e.CompanyID.String(),
		ActorID:    actorID,
		Decision:   decision,
		Status:     e.Status,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "expense",
		AggregateID:   e.ID.String(),
		EventType:     event.EventType,
		Topic:         events.ExpenseDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
