package identity

import (
	"time"
)

// Role is the closed set of group names recognized by the application.
// Group membership is stored by the identity provider; the application
// only ever reasons about these six names.
type Role string

const (
	RoleAdmins       Role = "Admins"
	RoleSchoolAdmins Role = "School Admins"
	RoleSchoolStaff  Role = "School Staff"
	RoleTeachers     Role = "Teachers"
	RoleSystemAdmins Role = "System Admins"
	RoleSystemStaff  Role = "System Staff"
)

// RoleScope partitions roles into the school-facing and ministry-facing
// halves of the application. Admins is usable by either scope.
type RoleScope string

const (
	ScopeSchool RoleScope = "school"
	ScopeSystem RoleScope = "system"
	ScopeAny    RoleScope = "any"
)

func (r Role) Scope() RoleScope {
	switch r {
	case RoleAdmins:
		return ScopeAny
	case RoleSchoolAdmins, RoleSchoolStaff, RoleTeachers:
		return ScopeSchool
	case RoleSystemAdmins, RoleSystemStaff:
		return ScopeSystem
	}
	return ScopeSchool
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmins, RoleSchoolAdmins, RoleSchoolStaff, RoleTeachers,
		RoleSystemAdmins, RoleSystemStaff:
		return true
	}
	return false
}

// AllRoles returns every recognized role, school scope first.
func AllRoles() []Role {
	return []Role{
		RoleAdmins,
		RoleSchoolAdmins,
		RoleSchoolStaff,
		RoleTeachers,
		RoleSystemAdmins,
		RoleSystemStaff,
	}
}

// ProfileKind distinguishes the two mutually exclusive profile types a
// user may hold.
type ProfileKind string

const (
	ProfileNone       ProfileKind = ""
	ProfileStaff      ProfileKind = "school_staff"
	ProfileSystemUser ProfileKind = "system_user"
)

// User is the application's view of an identity-provider account. Roles
// and profile references are resolved once per request by the auth
// middleware so permission checks stay in memory.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	Roles       []Role    `json:"roles"`
	StaffID     *int64    `json:"staff_id,omitempty"`
	SystemID    *int64    `json:"system_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...Role) bool {
	for _, want := range roles {
		if u.HasRole(want) {
			return true
		}
	}
	return false
}

// ProfileKind reports which profile the user holds, if any.
func (u *User) ProfileKind() ProfileKind {
	if u.StaffID != nil {
		return ProfileStaff
	}
	if u.SystemID != nil {
		return ProfileSystemUser
	}
	return ProfileNone
}

func (u *User) HasProfile() bool {
	return u.StaffID != nil || u.SystemID != nil
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
