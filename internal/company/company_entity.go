package company

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string     `gorm:"column:name;type:varchar(255);not null"`
	Currency string     `gorm:"column:currency;type:varchar(3);not null"`
	AdminID  *uuid.UUID `gorm:"column:admin_id;type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Company) TableName() string {
	return "companies"
}
