package model

import (
	"fmt"
	"time"
)

// Role is the access level of a user. It is a closed set; every switch over
// Role must name all three values.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDepartment Role = "department"
	RoleUser       Role = "user"
)

// Roles lists every role.
var Roles = []Role{RoleAdmin, RoleDepartment, RoleUser}

// ParseRole validates s against the known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDepartment, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Capabilities is the set of actions a role may perform.
type Capabilities struct {
	ReportIssues      bool
	Vote              bool
	UpdateStatus      bool
	AssignIssues      bool
	AddUpdates        bool
	DeleteIssues      bool
	ManageUsers       bool
	ManageDepartments bool
	ViewAnalytics     bool
}

// Capabilities returns what r is allowed to do. Unknown roles get nothing.
func (r Role) Capabilities() Capabilities {
	switch r {
	case RoleAdmin:
		return Capabilities{
			ReportIssues:      true,
			Vote:              true,
			UpdateStatus:      true,
			AssignIssues:      true,
			AddUpdates:        true,
			DeleteIssues:      true,
			ManageUsers:       true,
			ManageDepartments: true,
			ViewAnalytics:     true,
		}
	case RoleDepartment:
		return Capabilities{
			ReportIssues:  true,
			Vote:          true,
			UpdateStatus:  true,
			AssignIssues:  true,
			AddUpdates:    true,
			ViewAnalytics: true,
		}
	case RoleUser:
		return Capabilities{
			ReportIssues:  true,
			Vote:          true,
			ViewAnalytics: true,
		}
	default:
		return Capabilities{}
	}
}

// Label is the display name for r.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleDepartment:
		return "Department Staff"
	case RoleUser:
		return "Citizen"
	default:
		return "Unknown"
	}
}

// User is an account on the civic platform.
type User struct {
	ID           string         `json:"_id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Role         Role           `json:"role"`
	Department   *DepartmentRef `json:"department,omitempty"`
	ProfileImage string         `json:"profileImage,omitempty"`
	IsActive     bool           `json:"isActive"`
	LastActive   *time.Time     `json:"lastActive,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// UserPatch carries editable user fields. Nil fields are left unchanged.
type UserPatch struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	Department   *string `json:"department,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// Merge applies the non-nil fields of p to a copy of u.
func (u User) Merge(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	return u
}

// UserStats is the admin summary of accounts.
type UserStats struct {
	TotalUsers  int          `json:"totalUsers"`
	ActiveUsers int          `json:"activeUsers"`
	ByRole      []CountEntry `json:"usersByRole"`
}

// Department is a municipal unit that handles issues.
type Department struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	Head        *UserRef   `json:"head,omitempty"`
	Email       string     `json:"contactEmail,omitempty"`
	Phone       string     `json:"contactPhone,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DepartmentInput is the payload for creating or updating a department.
type DepartmentInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	Email       string     `json:"contactEmail,omitempty"`
	Phone       string     `json:"contactPhone,omitempty"`
}

// DepartmentStats is the per-department workload summary.
type DepartmentStats struct {
	DepartmentID   string  `json:"_id"`
	Name           string  `json:"name"`
	TotalIssues    int     `json:"totalIssues"`
	ResolvedIssues int     `json:"resolvedIssues"`
	PendingIssues  int     `json:"pendingIssues"`
	ResolutionRate float64 `json:"resolutionRate"`
}
