package approvalrule

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approvalrule_repo.go -destination=mock/approvalrule_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByCompany(ctx context.Context, companyID string) (*ApprovalRule, error)
	Save(ctx context.Context, rule *ApprovalRule) error
	HasApprover(ctx context.Context, companyID, userID string) (bool, error)
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

func (r *repository) FindByCompany(ctx context.Context, companyID string) (*ApprovalRule, error) {
	var rule ApprovalRule
	err := r.db.WithContext(ctx).
		Preload("Approvers", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&rule, "company_id = ?", companyID).Error
	return &rule, err
}

// Save replaces the company rule wholesale: the previous rule row and its
// steps go away, the new one is inserted with its steps in one statement
// batch. Callers wrap this in a transaction via WithTx.
func (r *repository) Save(ctx context.Context, rule *ApprovalRule) error {
	db := r.db.WithContext(ctx)

	var existing ApprovalRule
	err := db.First(&existing, "company_id = ?", rule.CompanyID).Error
	if err == nil {
		if err := db.Where("rule_id = ?", existing.ID).Delete(&ApprovalStep{}).Error; err != nil {
			return err
		}
		if err := db.Delete(&ApprovalRule{}, "id = ?", existing.ID).Error; err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Create(rule).Error
}

func (r *repository) HasApprover(ctx context.Context, companyID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("approval_steps").
		Joins("JOIN approval_rules ON approval_rules.id = approval_steps.rule_id").
		Where("approval_rules.company_id = ?", companyID).
		Where("approval_steps.user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Table("approval_rules").
		Where("company_id = ?", companyID).
		Where("specific_approver_ids::text LIKE ?", "%"+userID+"%").
		Count(&count).Error
	return count > 0, err
}
