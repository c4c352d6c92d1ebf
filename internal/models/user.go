package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:255"`
	FullName string `json:"full_name" gorm:"not null;size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	// Status
	EmailVerified bool `json:"email_verified" gorm:"default:false"`

	// Resolved role set, loaded from role assignments. Not a column.
	Roles []Role `json:"roles" gorm:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// HighestRank resolves the user's highest-ranked role; a user with no
// assignments resolves to Guest.
func (u *User) HighestRank() Role {
	return HighestRank(u.Roles)
}

// RoleAssignment is one row of a user's role set. The set is only ever
// replaced as a whole through the admin surface, never edited row by row.
type RoleAssignment struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:255"`
	Role      Role      `json:"role" gorm:"primaryKey;size:50"`
	GrantedBy string    `json:"granted_by" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
}

func (RoleAssignment) TableName() string {
	return "user_roles"
}
