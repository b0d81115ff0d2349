package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type User struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	Email     string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Name      string     `gorm:"column:name;type:varchar(255);not null"`
	Password  string     `gorm:"column:password;type:varchar(255);not null"`
	Role      string     `gorm:"column:role;type:varchar(20);not null;default:'employee'"`
	ManagerID *uuid.UUID `gorm:"column:manager_id;type:uuid;index"`
	IsActive  bool       `gorm:"column:is_active;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}
