package user

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]User, error)
	FindAllByManager(ctx context.Context, companyID, managerID string) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, companyID, id string) error
	CountManagedUsers(ctx context.Context, companyID, managerID string) (int64, error)
	CountPendingExpenses(ctx context.Context, companyID, employeeID string) (int64, error)
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

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	return &u, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *repository) FindAllByManager(ctx context.Context, companyID, managerID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("manager_id = ?", managerID).
		Find(&users).Error
	return users, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Delete(&User{}, "id = ?", id).Error
}

func (r *repository) CountManagedUsers(ctx context.Context, companyID, managerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("company_id = ?", companyID).
		Where("manager_id = ?", managerID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountPendingExpenses(ctx context.Context, companyID, employeeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("expenses").
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("status = ?", "pending").
		Count(&count).Error
	return count, err
}
