package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// User is the external identity this core references for FK integrity.
// Registration, login, and sessions are owned elsewhere.
type User struct {
	ID    uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name  string     `gorm:"column:name;not null"`
	Email string     `gorm:"column:email;not null;uniqueIndex"`
	Role  enums.Role `gorm:"column:role;type:text;not null;default:'buyer'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
