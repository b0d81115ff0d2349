package company

import (
	"context"
	"errors"
	"strings"

	companyerrors "go-expensio/internal/company/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=company_service.go -destination=mock/company_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, companyID string) (CompanyResponse, error)
	Update(ctx context.Context, companyID string, req UpdateCompanyRequest) (CompanyResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("company.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetByID(ctx context.Context, companyID string) (CompanyResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return CompanyResponse{}, companyerrors.ErrInvalidCompanyID
	}

	c, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompanyResponse{}, companyerrors.ErrCompanyNotFound
		}
		return CompanyResponse{}, err
	}
	return mapToResponse(*c), nil
}

func (s *service) Update(ctx context.Context, companyID string, req UpdateCompanyRequest) (CompanyResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return CompanyResponse{}, companyerrors.ErrInvalidCompanyID
	}

	c, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompanyResponse{}, companyerrors.ErrCompanyNotFound
		}
		return CompanyResponse{}, err
	}

	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Currency != "" {
		cur := strings.ToUpper(req.Currency)
		if len(cur) != 3 {
			return CompanyResponse{}, companyerrors.ErrInvalidCurrency
		}
		c.Currency = cur
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("update company persist failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		return CompanyResponse{}, err
	}

	s.logger.Info("update company success", zap.String("company_id", companyID))
	return mapToResponse(*c), nil
}

func mapToResponse(c Company) CompanyResponse {
	resp := CompanyResponse{
		ID:       c.ID.String(),
		Name:     c.Name,
		Currency: c.Currency,
	}
	if c.AdminID != nil {
		resp.AdminID = c.AdminID.String()
	}
	return resp
}
