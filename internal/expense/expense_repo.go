package expense

import (
	"context"
	"database/sql"

	"go-expensio/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=expense_repo.go -destination=mock/expense_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Expense) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Expense, error)
	// FindByIDAndCompanyForUpdate locks the expense row until the caller's
	// transaction ends, serializing concurrent decisions per expense.
	FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*Expense, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Expense, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Expense, error)
	FindAllByStatus(ctx context.Context, companyID, status string) ([]Expense, error)
	FindPendingByCompany(ctx context.Context, companyID string) ([]Expense, error)
	Update(ctx context.Context, e *Expense) error
	AppendAction(ctx context.Context, a *ApprovalAction) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	db := r.db.Session(&gorm.Session{NewDB: true})
	db.Statement.ConnPool = tx
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Expense) error {
	return r.db.WithContext(ctx).Omit("Actions").Create(e).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Expense, error) {
	var e Expense
	err := r.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*Expense, error) {
	var e Expense
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	// History is loaded separately so the lock clause stays on the
	// expenses query alone.
	err = r.db.WithContext(ctx).
		Where("expense_id = ?", e.ID).
		Order("timestamp ASC").
		Find(&e.Actions).Error
	return &e, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Expense, error) {
	var expenses []Expense
	err := r.db.WithContext(ctx).
		Preload("Actions").
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Expense, error) {
	var expenses []Expense
	err := r.db.WithContext(ctx).
		Preload("Actions").
		Scopes(tenant.ScopeEmployee(companyID, employeeID)).
		Order("created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *repository) FindAllByStatus(ctx context.Context, companyID, status string) ([]Expense, error) {
	var expenses []Expense
	err := r.db.WithContext(ctx).
		Preload("Actions").
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *repository) FindPendingByCompany(ctx context.Context, companyID string) ([]Expense, error) {
	var expenses []Expense
	err := r.db.WithContext(ctx).
		Preload("Actions").
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Find(&expenses).Error
	return expenses, err
}

func (r *repository) Update(ctx context.Context, e *Expense) error {
	return r.db.WithContext(ctx).Omit("Actions").Save(e).Error
}

func (r *repository) AppendAction(ctx context.Context, a *ApprovalAction) error {
	return r.db.WithContext(ctx).Create(a).Error
}
