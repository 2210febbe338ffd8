package models

import "strings"

// PrincipalKind tells customer accounts and staff accounts apart.
type PrincipalKind string

const (
	PrincipalCustomer PrincipalKind = "customer"
	PrincipalStaff    PrincipalKind = "staff"
)

// Role is the closed set of roles. RoleCustomer is carried by every customer principal.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleTechnician   Role = "technician"
	RoleReceptionist Role = "receptionist"
	RoleCustomer     Role = "customer"
)

// StaffRoles lists the roles a staff account can hold.
var StaffRoles = []Role{RoleAdmin, RoleManager, RoleTechnician, RoleReceptionist}

// ParseStaffRole validates a staff role name (case-insensitive).
func ParseStaffRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range StaffRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Actor is the authenticated principal on whose behalf an operation runs.
type Actor struct {
	Kind     PrincipalKind `json:"kind"`
	ID       int64         `json:"id"`
	Role     Role          `json:"role"`
	Username string        `json:"username,omitempty"`
}

func (a Actor) IsCustomer() bool { return a.Kind == PrincipalCustomer }
func (a Actor) IsStaff() bool    { return a.Kind == PrincipalStaff }

// Credentials for login request. Login is a username for staff, an email or phone for customers.
type Credentials struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Profile is returned by /auth/me.
type Profile struct {
	Actor    Actor        `json:"actor"`
	Customer *Customer    `json:"customer,omitempty"`
	Staff    *StaffMember `json:"staff,omitempty"`
}
