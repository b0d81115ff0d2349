package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	usererrors "go-expensio/internal/user/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ApproverChecker is a local interface so the user module can refuse
// deleting users still referenced by the company approval rule without
// importing the rule package.
type ApproverChecker interface {
	HasApprover(ctx context.Context, companyID, userID string) (bool, error)
}

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateUserRequest) (UserResponse, error)
	GetAll(ctx context.Context, companyID string) ([]UserResponse, error)
	GetByID(ctx context.Context, companyID, id string) (UserResponse, error)
	GetByManager(ctx context.Context, companyID, managerID string) ([]UserResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateUserRequest) (UserResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	approver ApproverChecker
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, approver ApproverChecker, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{db: db, repo: repo, approver: approver, logger: l}
}

func (s *service) Create(ctx context.Context, companyID string, req CreateUserRequest) (UserResponse, error) {
	s.logger.Debug("create user requested",
		zap.String("company_id", companyID),
		zap.String("email", req.Email),
		zap.String("role", req.Role),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	role := strings.ToLower(req.Role)
	if !IsValidRole(role) {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	managerID, err := s.resolveManager(ctx, companyID, "", req.ManagerID)
	if err != nil {
		return UserResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, err
	}

	u := &User{
		ID:        uuid.New(),
		CompanyID: companyUUID,
		Email:     req.Email,
		Name:      req.Name,
		Password:  string(hashed),
		Role:      role,
		ManagerID: managerID,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("create user persist failed", zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("create user success",
		zap.String("user_id", u.ID.String()),
		zap.String("company_id", companyID),
	)
	return mapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]UserResponse, error) {
	users, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	res := make([]UserResponse, len(users))
	for i, u := range users {
		res[i] = mapToResponse(u)
	}
	return res, nil
}

// GetByManager lists the direct reports of a manager.
func (s *service) GetByManager(ctx context.Context, companyID, managerID string) ([]UserResponse, error) {
	users, err := s.repo.FindAllByManager(ctx, companyID, managerID)
	if err != nil {
		return nil, err
	}
	res := make([]UserResponse, len(users))
	for i, u := range users {
		res[i] = mapToResponse(u)
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (UserResponse, error) {
	u, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	return mapToResponse(*u), nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdateUserRequest) (UserResponse, error) {
	u, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Role != "" {
		role := strings.ToLower(req.Role)
		if !IsValidRole(role) {
			return UserResponse{}, usererrors.ErrInvalidRole
		}
		u.Role = role
	}
	if req.ManagerID != nil {
		managerID, err := s.resolveManager(ctx, companyID, id, req.ManagerID)
		if err != nil {
			return UserResponse{}, err
		}
		u.ManagerID = managerID
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("update user persist failed",
			zap.String("user_id", id),
			zap.Error(err),
		)
		return UserResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("update user success", zap.String("user_id", id))
	return mapToResponse(*u), nil
}

// Delete refuses while the user is still referenced: pending expenses,
// approval-rule membership, or subordinates pointing at them. Expense
// history stays intact because actions carry a denormalized name.
func (s *service) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.repo.FindByIDAndCompany(ctx, companyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usererrors.ErrUserNotFound
		}
		return err
	}

	pending, err := s.repo.CountPendingExpenses(ctx, companyID, id)
	if err != nil {
		return err
	}
	if pending > 0 {
		return usererrors.ErrUserReferenced
	}

	managed, err := s.repo.CountManagedUsers(ctx, companyID, id)
	if err != nil {
		return err
	}
	if managed > 0 {
		return usererrors.ErrUserReferenced
	}

	if s.approver != nil {
		referenced, err := s.approver.HasApprover(ctx, companyID, id)
		if err != nil {
			return err
		}
		if referenced {
			return usererrors.ErrUserReferenced
		}
	}

	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return err
	}

	s.logger.Info("delete user success", zap.String("user_id", id))
	return nil
}

// resolveManager validates the one-hop manager reference. Self-reference
// is a configuration error caught here, at edit time, not during routing.
func (s *service) resolveManager(ctx context.Context, companyID, userID string, managerID *string) (*uuid.UUID, error) {
	if managerID == nil || *managerID == "" {
		return nil, nil
	}
	if userID != "" && *managerID == userID {
		return nil, usererrors.ErrSelfManager
	}

	mgrUUID, err := uuid.Parse(*managerID)
	if err != nil {
		return nil, usererrors.ErrInvalidManagerID
	}

	if _, err := s.repo.FindByIDAndCompany(ctx, companyID, *managerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrManagerNotInCompany
		}
		return nil, err
	}

	return &mgrUUID, nil
}

func mapRepositoryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return usererrors.ErrEmailTaken
	}
	if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
		return usererrors.ErrEmailTaken
	}
	return err
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		CompanyID: u.CompanyID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
	if u.ManagerID != nil {
		v := u.ManagerID.String()
		resp.ManagerID = &v
	}
	return resp
}
