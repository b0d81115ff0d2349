package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-expensio/internal/company"
	"go-expensio/internal/currency"
	"go-expensio/internal/events"
	expenseerrors "go-expensio/internal/expense/errors"
	"go-expensio/internal/messaging/kafka"
	"go-expensio/internal/shared/contextutil"
	"go-expensio/internal/shared/counter"
	"go-expensio/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refCounterType = "expense_ref"

//go:generate mockgen -source=expense_service.go -destination=mock/expense_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, employeeID string, req SubmitExpenseRequest) (ExpenseResponse, error)
	GetByID(ctx context.Context, companyID, id string) (ExpenseResponse, error)
	GetAllByCompany(ctx context.Context, companyID string) ([]ExpenseResponse, error)
	GetAllByEmployee(ctx context.Context, companyID, employeeID string) ([]ExpenseResponse, error)
	GetAllByStatus(ctx context.Context, companyID, status string) ([]ExpenseResponse, error)
	// Override lets an admin force a final status, bypassing the routing
	// chain. Refused on terminal expenses like any other decision.
	Override(ctx context.Context, companyID, adminID, id string, req OverrideRequest) (ExpenseResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	userRepo    user.Repository
	companyRepo company.Repository
	counterRepo counter.Repository
	outboxRepo  kafka.OutboxRepository
	converter   currency.Service
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	userRepo user.Repository,
	companyRepo company.Repository,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	converter currency.Service,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("expense.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("expense.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		counterRepo: counterRepo,
		outboxRepo:  outboxRepo,
		converter:   converter,
		logger:      l,
	}
}

func (s *service) Submit(ctx context.Context, companyID, employeeID string, req SubmitExpenseRequest) (ExpenseResponse, error) {
	s.logger.Debug("submit expense requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.Float64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return ExpenseResponse{}, expenseerrors.ErrInvalidExpenseID
	}
	if !IsValidCategory(req.Category) {
		return ExpenseResponse{}, expenseerrors.ErrInvalidCategory
	}
	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return ExpenseResponse{}, expenseerrors.ErrInvalidExpenseDate
	}

	employee, err := s.userRepo.FindByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, expenseerrors.ErrExpenseNotFound
		}
		return ExpenseResponse{}, err
	}

	comp, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return ExpenseResponse{}, err
	}

	converted, err := s.converter.Convert(ctx, req.Amount, req.Currency, comp.Currency)
	if err != nil {
		// Conversion failure never blocks submission. The submitted
		// amount stands in until rates come back.
		s.logger.Warn("currency conversion unavailable, using submitted amount",
			zap.String("from", req.Currency),
			zap.String("to", comp.Currency),
			zap.Error(err),
		)
		converted = req.Amount
	}

	lines := make([]ExpenseLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = ExpenseLine{Description: l.Description, Amount: l.Amount, Category: l.Category}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExpenseResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qtxCounter := s.counterRepo.WithTx(tx)
	qtxOutbox := s.outboxRepo.WithTx(tx)

	seq, err := qtxCounter.GetNextValue(ctx, companyID, refCounterType)
	if err != nil {
		s.logger.Error("allocate expense ref failed", zap.Error(err))
		return ExpenseResponse{}, err
	}

	e := &Expense{
		ID:                      uuid.New(),
		RefNumber:               fmt.Sprintf("EXP-%06d", seq),
		EmployeeID:              employee.ID,
		EmployeeName:            employee.Name,
		CompanyID:               companyUUID,
		Amount:                  req.Amount,
		Currency:                req.Currency,
		AmountInCompanyCurrency: converted,
		Category:                req.Category,
		Description:             req.Description,
		ExpenseDate:             expenseDate,
		ReceiptURL:              req.ReceiptURL,
		MerchantName:            req.MerchantName,
		Lines:                   lines,
		Status:                  StatusPending,
		CurrentApproverIndex:    0,
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("submit expense persist failed", zap.Error(err))
		return ExpenseResponse{}, err
	}

	if err := s.enqueueSubmittedEvent(ctx, qtxOutbox, e); err != nil {
		s.logger.Error("enqueue expense_submitted event failed", zap.Error(err))
		return ExpenseResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return ExpenseResponse{}, err
	}

	s.logger.Info("submit expense success",
		zap.String("expense_id", e.ID.String()),
		zap.String("ref_number", e.RefNumber),
		zap.String("company_id", companyID),
	)
	return MapToResponse(e), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (ExpenseResponse, error) {
	e, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, expenseerrors.ErrExpenseNotFound
		}
		return ExpenseResponse{}, err
	}
	return MapToResponse(e), nil
}

func (s *service) GetAllByCompany(ctx context.Context, companyID string) ([]ExpenseResponse, error) {
	expenses, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return MapAllToResponse(expenses), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, companyID, employeeID string) ([]ExpenseResponse, error) {
	expenses, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return MapAllToResponse(expenses), nil
}

func (s *service) GetAllByStatus(ctx context.Context, companyID, status string) ([]ExpenseResponse, error) {
	if !IsValidStatus(status) {
		return nil, expenseerrors.ErrInvalidStatusFilter
	}
	expenses, err := s.repo.FindAllByStatus(ctx, companyID, status)
	if err != nil {
		return nil, err
	}
	return MapAllToResponse(expenses), nil
}

func (s *service) Override(ctx context.Context, companyID, adminID, id string, req OverrideRequest) (ExpenseResponse, error) {
	s.logger.Debug("admin override requested",
		zap.String("expense_id", id),
		zap.String("admin_id", adminID),
		zap.String("status", req.Status),
	)

	if req.Status != StatusApproved && req.Status != StatusRejected {
		return ExpenseResponse{}, expenseerrors.ErrInvalidStatusFilter
	}

	admin, err := s.userRepo.FindByIDAndCompany(ctx, companyID, adminID)
	if err != nil {
		return ExpenseResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExpenseResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qtxOutbox := s.outboxRepo.WithTx(tx)

	e, err := qtx.FindByIDAndCompanyForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, expenseerrors.ErrExpenseNotFound
		}
		return ExpenseResponse{}, err
	}

	if e.IsTerminal() {
		return ExpenseResponse{}, expenseerrors.ErrExpenseFinalized
	}

	action := ActionApproved
	if req.Status == StatusRejected {
		action = ActionRejected
	}
	comment := req.Comment
	if comment == nil {
		v := "overridden by admin"
		comment = &v
	}

	historyRow := &ApprovalAction{
		ID:           uuid.New(),
		ExpenseID:    e.ID,
		ApproverID:   admin.ID,
		ApproverName: admin.Name,
		Action:       action,
		Comment:      comment,
		Timestamp:    time.Now().UTC(),
	}
	if err := qtx.AppendAction(ctx, historyRow); err != nil {
		return ExpenseResponse{}, err
	}

	e.Status = req.Status
	if err := qtx.Update(ctx, e); err != nil {
		return ExpenseResponse{}, err
	}

	if err := s.enqueueDecidedEvent(ctx, qtxOutbox, e, adminID, action); err != nil {
		return ExpenseResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return ExpenseResponse{}, err
	}

	e.Actions = append(e.Actions, *historyRow)

	s.logger.Info("admin override success",
		zap.String("expense_id", e.ID.String()),
		zap.String("admin_id", adminID),
		zap.String("status", e.Status),
	)
	return MapToResponse(e), nil
}

func (s *service) enqueueSubmittedEvent(ctx context.Context, outbox kafka.OutboxRepository, e *Expense) error {
	event := events.ExpenseSubmittedEvent{
		EventType:  "expense_submitted",
		ExpenseID:  e.ID.String(),
		RefNumber:  e.RefNumber,
		EmployeeID: e.EmployeeID.String(),
		CompanyID:  e.CompanyID.String(),
		Amount:     e.Amount,
		Currency:   e.Currency,
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
		Topic:         events.ExpenseSubmittedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) enqueueDecidedEvent(ctx context.Context, outbox kafka.OutboxRepository, e *Expense, actorID, decision string) error {
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

func MapToResponse(e *Expense) ExpenseResponse {
	history := make([]ApprovalActionResponse, len(e.Actions))
	for i, a := range e.Actions {
		history[i] = ApprovalActionResponse{
			ApproverID:   a.ApproverID.String(),
			ApproverName: a.ApproverName,
			Action:       a.Action,
			Comment:      a.Comment,
			Timestamp:    a.Timestamp,
		}
	}
	return ExpenseResponse{
		ID:                      e.ID.String(),
		RefNumber:               e.RefNumber,
		EmployeeID:              e.EmployeeID.String(),
		EmployeeName:            e.EmployeeName,
		CompanyID:               e.CompanyID.String(),
		Amount:                  e.Amount,
		Currency:                e.Currency,
		AmountInCompanyCurrency: e.AmountInCompanyCurrency,
		Category:                e.Category,
		Description:             e.Description,
		ExpenseDate:             e.ExpenseDate.Format("2006-01-02"),
		ReceiptURL:              e.ReceiptURL,
		MerchantName:            e.MerchantName,
		Lines:                   e.Lines,
		Status:                  e.Status,
		CurrentApproverIndex:    e.CurrentApproverIndex,
		ApprovalHistory:         history,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}
}

func MapAllToResponse(expenses []Expense) []ExpenseResponse {
	res := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		res[i] = MapToResponse(&expenses[i])
	}
	return res
}
