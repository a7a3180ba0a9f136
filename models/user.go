package models

import "time"

type User struct {
	ID           int        `json:"id"`
	RoleID       int        `json:"role_id"`
	RoleName     string     `json:"role_name,omitempty"`
	RoleLevel    int        `json:"role_level,omitempty"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Document     string     `json:"document,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Active       bool       `json:"active"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
	Permissions  []string   `json:"permissions,omitempty"`
}

type UserPatch struct {
	RoleID   *int    `json:"role_id"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Document *string `json:"document"`
	Phone    *string `json:"phone"`
	Active   *bool   `json:"active"`
}

// Apply merges the present patch fields into u. Password is handled
// separately; it is hashed, never copied into the user record.
func (p UserPatch) Apply(u *User) {
	if p.RoleID != nil {
		u.RoleID = *p.RoleID
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Document != nil {
		u.Document = *p.Document
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}
