package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Роли фиксированы по убыванию привилегий: чем меньше rank, тем выше права.
const (
	RoleSuperadmin = 1
	RoleOwner      = 2
	RoleSales      = 3
	RoleEmployee   = 4
)

// KnownRole — закрытое множество ролей; неизвестный rank отклоняем на границе.
func KnownRole(roleID int) bool {
	return roleID >= RoleSuperadmin && roleID <= RoleEmployee
}

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username  string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email     string `gorm:"size:255" json:"email"`
	FirstName string `gorm:"size:128" json:"first_name"`
	LastName  string `gorm:"size:128" json:"last_name"`
	RoleID    int    `gorm:"not null" json:"role_id"`

	// Верификатор пароля: либо legacy sha256-hex, либо bcrypt.
	// Наружу не отдаётся никогда.
	PasswordVerifier string `gorm:"size:255;not null" json:"-"`

	Status string `gorm:"size:32;default:offline" json:"status"`
}

// Status — справочник статусов присутствия (имя + цвет для клиента).
type Status struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name  string `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Color string `gorm:"size:16" json:"color"`
}

const (
	EntryTypeIn  = "in"
	EntryTypeOut = "out"
)

type TimeEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"size:8;not null" json:"type"` // in|out
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	// Аудит правок: кто правил и что было до правки.
	EditedBy *uint          `json:"edited_by,omitempty"`
	Prev     datatypes.JSON `json:"-"`
}
