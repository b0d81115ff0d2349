package approvalrule

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	approvalruleerrors "go-expensio/internal/approvalrule/errors"
	"go-expensio/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=approvalrule_service.go -destination=mock/approvalrule_service_mock.go -package=mock
type Service interface {
	GetByCompany(ctx context.Context, companyID string) (RuleResponse, error)
	Save(ctx context.Context, companyID string, req SaveRuleRequest) (RuleResponse, error)
	HasApprover(ctx context.Context, companyID, userID string) (bool, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	userRepo user.Repository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, userRepo user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("approvalrule.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approvalrule.service")
	}
	return &service{db: db, repo: repo, userRepo: userRepo, logger: l}
}

func (s *service) GetByCompany(ctx context.Context, companyID string) (RuleResponse, error) {
	rule, err := s.repo.FindByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RuleResponse{}, approvalruleerrors.ErrPolicyNotFound
		}
		return RuleResponse{}, err
	}
	return mapToResponse(rule), nil
}

func (s *service) Save(ctx context.Context, companyID string, req SaveRuleRequest) (RuleResponse, error) {
	s.logger.Debug("save rule requested",
		zap.String("company_id", companyID),
		zap.Int("approvers", len(req.Approvers)),
		zap.String("conditional_type", req.ConditionalType),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RuleResponse{}, approvalruleerrors.ErrApproverNotInCompany
	}

	if !IsValidConditionalType(req.ConditionalType) {
		return RuleResponse{}, approvalruleerrors.ErrInvalidConditionalType
	}
	if req.ConditionalType == ConditionalPercentage || req.ConditionalType == ConditionalHybrid {
		if req.PercentageThreshold == nil {
			return RuleResponse{}, approvalruleerrors.ErrThresholdRequired
		}
		if *req.PercentageThreshold < 1 || *req.PercentageThreshold > 100 {
			return RuleResponse{}, approvalruleerrors.ErrInvalidThreshold
		}
	}

	steps, err := s.buildSteps(ctx, companyID, req.Approvers)
	if err != nil {
		return RuleResponse{}, err
	}

	for _, id := range req.SpecificApproverIDs {
		if _, err := s.userRepo.FindByIDAndCompany(ctx, companyID, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return RuleResponse{}, approvalruleerrors.ErrApproverNotInCompany
			}
			return RuleResponse{}, err
		}
	}

	rule := &ApprovalRule{
		ID:                  uuid.New(),
		CompanyID:           companyUUID,
		Name:                req.Name,
		IsManagerApprover:   req.IsManagerApprover,
		ConditionalType:     req.ConditionalType,
		PercentageThreshold: req.PercentageThreshold,
		SpecificApproverIDs: req.SpecificApproverIDs,
		Approvers:           steps,
	}
	for i := range rule.Approvers {
		rule.Approvers[i].RuleID = rule.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RuleResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Save(ctx, rule); err != nil {
		s.logger.Error("save rule persist failed", zap.Error(err))
		return RuleResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RuleResponse{}, err
	}

	s.logger.Info("save rule success",
		zap.String("rule_id", rule.ID.String()),
		zap.String("company_id", companyID),
	)
	return mapToResponse(rule), nil
}

func (s *service) HasApprover(ctx context.Context, companyID, userID string) (bool, error) {
	return s.repo.HasApprover(ctx, companyID, userID)
}

// buildSteps validates chain membership and re-indexes step orders to a
// dense 0..len-1 sequence, keeping the submitted relative order.
func (s *service) buildSteps(ctx context.Context, companyID string, reqs []ApproverStepRequest) ([]ApprovalStep, error) {
	sorted := make([]ApproverStepRequest, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	seen := make(map[string]bool, len(sorted))
	steps := make([]ApprovalStep, 0, len(sorted))
	for i, req := range sorted {
		if seen[req.UserID] {
			return nil, approvalruleerrors.ErrDuplicateApprover
		}
		seen[req.UserID] = true

		u, err := s.userRepo.FindByIDAndCompany(ctx, companyID, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, approvalruleerrors.ErrApproverNotInCompany
			}
			return nil, err
		}

		steps = append(steps, ApprovalStep{
			ID:        uuid.New(),
			UserID:    u.ID,
			UserName:  u.Name,
			StepOrder: i,
		})
	}
	return steps, nil
}

func mapToResponse(rule *ApprovalRule) RuleResponse {
	approvers := make([]ApproverStepResponse, len(rule.Approvers))
	for i, step := range rule.Approvers {
		approvers[i] = ApproverStepResponse{
			UserID:   step.UserID.String(),
			UserName: step.UserName,
			Order:    step.StepOrder,
		}
	}
	return RuleResponse{
		ID:                  rule.ID.String(),
		CompanyID:           rule.CompanyID.String(),
		Name:                rule.Name,
		IsManagerApprover:   rule.IsManagerApprover,
		Approvers:           approvers,
		ConditionalType:     rule.ConditionalType,
		PercentageThreshold: rule.PercentageThreshold,
		SpecificApproverIDs: rule.SpecificApproverIDs,
	}
}
