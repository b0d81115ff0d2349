package rbac

import (
	"sync"

	"go-expensio/internal/domain"

	"github.com/casbin/casbin/v2"
)

// Role names are fixed; permissions per role are code-defined rather
// than stored, since the product has exactly three roles per company.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var rolePermissions = map[string][][2]string{
	RoleAdmin: {
		{"expense", "create"}, {"expense", "read"}, {"expense", "read_all"},
		{"expense", "decide"}, {"expense", "override"},
		{"approval_rule", "read"}, {"approval_rule", "write"},
		{"user", "read"}, {"user", "write"},
		{"company", "write"},
	},
	RoleManager: {
		{"expense", "create"}, {"expense", "read"}, {"expense", "read_all"},
		{"expense", "decide"},
		{"approval_rule", "read"},
		{"user", "read"},
	},
	RoleEmployee: {
		{"expense", "create"}, {"expense", "read"},
	},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadCompanyPolicy(companyID string) error
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	loaded   map[string]bool
}

func NewService(repo Repository, enforcer *casbin.Enforcer) Service {
	return &service{
		repo:     repo,
		enforcer: enforcer,
		loaded:   make(map[string]bool),
	}
}

func (s *service) LoadCompanyPolicy(companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCompanyPolicyUnlocked(companyID)
}

func (s *service) loadCompanyPolicyUnlocked(companyID string) error {
	s.enforcer.RemoveFilteredPolicy(1, companyID)
	s.enforcer.RemoveFilteredGroupingPolicy(2, companyID)

	userRoles, err := s.repo.GetUserRoles(companyID)
	if err != nil {
		return err
	}

	for _, ur := range userRoles {
		if _, err := s.enforcer.AddGroupingPolicy(ur.UserID, ur.Role, companyID); err != nil {
			return err
		}
	}

	for role, perms := range rolePermissions {
		for _, p := range perms {
			if _, err := s.enforcer.AddPolicy(role, companyID, p[0], p[1]); err != nil {
				return err
			}
		}
	}

	s.loaded[companyID] = true
	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	if !s.loaded[req.CompanyID] {
		if err := s.loadCompanyPolicyUnlocked(req.CompanyID); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	s.mu.Unlock()

	return s.enforcer.Enforce(req.UserID, req.CompanyID, req.Resource, req.Action)
}
