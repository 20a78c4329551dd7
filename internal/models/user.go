package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every assignable role, lowest privilege first.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

type User struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	Username    string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	Role        Role       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	FirstName   string     `gorm:"type:varchar(150)" json:"first_name"`
	LastName    string     `gorm:"type:varchar(150)" json:"last_name"`
	Bio         string     `gorm:"type:text" json:"bio"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"-"`
	LastLogin   *time.Time `json:"-"` // stamped on token issuance, invalidates outstanding codes
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// IsAdmin treats superusers as admins regardless of their role column.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
