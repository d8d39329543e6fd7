package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleUser     UserRole = "user"
	RoleReadOnly UserRole = "readonly"
	RoleGuest    UserRole = "guest"
)

func (r UserRole) String() string { return string(r) }

func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleManager, RoleUser, RoleReadOnly, RoleGuest:
		return r, nil
	default:
		return "", &OpError{
			Op:   "domain.parse_user_role",
			Kind: KindValidation,
			Err:  fmt.Errorf("unknown role %q", s),
		}
	}
}

// Permission is an access-control capability. Custom permissions are
// spelled "custom:<name>".
type Permission string

const (
	PermCreateResource Permission = "create_resource"
	PermReadResource   Permission = "read_resource"
	PermUpdateResource Permission = "update_resource"
	PermDeleteResource Permission = "delete_resource"
	PermManageUsers    Permission = "manage_users"
	PermManageSettings Permission = "manage_settings"
	PermViewReports    Permission = "view_reports"
	PermExportData     Permission = "export_data"
	PermImportData     Permission = "import_data"
)

const customPermissionPrefix = "custom:"

func CustomPermission(name string) Permission {
	return Permission(customPermissionPrefix + name)
}

func (p Permission) String() string { return string(p) }

func (p Permission) IsCustom() bool {
	return strings.HasPrefix(string(p), customPermissionPrefix)
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(s))
	if p.IsCustom() && len(p) > len(customPermissionPrefix) {
		return p, nil
	}
	for _, known := range builtinPermissions {
		if known == p {
			return p, nil
		}
	}
	return "", &OpError{
		Op:   "domain.parse_permission",
		Kind: KindValidation,
		Err:  fmt.Errorf("unknown permission %q", s),
	}
}

var builtinPermissions = []Permission{
	PermCreateResource,
	PermReadResource,
	PermUpdateResource,
	PermDeleteResource,
	PermManageUsers,
	PermManageSettings,
	PermViewReports,
	PermExportData,
	PermImportData,
}

var rolePermissions = map[UserRole][]Permission{
	RoleAdmin: builtinPermissions,
	RoleManager: {
		PermCreateResource,
		PermReadResource,
		PermUpdateResource,
		PermDeleteResource,
		PermViewReports,
		PermExportData,
		PermImportData,
	},
	RoleUser: {
		PermCreateResource,
		PermReadResource,
		PermUpdateResource,
		PermDeleteResource,
	},
	RoleReadOnly: {PermReadResource},
	RoleGuest:    {PermReadResource},
}

// PermissionSet is an unordered set of permissions. It encodes as a sorted
// JSON array.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the permissions in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PermissionSet) UnmarshalJSON(b []byte) error {
	var list []Permission
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = NewPermissionSet(list...)
	return nil
}

type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Role          UserRole      `json:"role"`
	Permissions   PermissionSet `json:"permissions"`
	Enabled       bool          `json:"enabled"`
	EmailVerified bool          `json:"email_verified"`
	CreatedAt     time.Time     `json:"created_at"`
	LastLogin     *time.Time    `json:"last_login,omitempty"`
}

// NewUser returns an enabled, unverified user with the standard role.
func NewUser(id, email, name string) User {
	return User{
		ID:          id,
		Email:       email,
		Name:        name,
		Role:        RoleUser,
		Permissions: PermissionSet{},
		Enabled:     true,
		CreatedAt:   now(),
	}
}

func (u User) WithRole(role UserRole) User {
	u.Role = role
	return u
}

func (u User) WithPermission(p Permission) User {
	perms := make(PermissionSet, len(u.Permissions)+1)
	for k := range u.Permissions {
		perms[k] = struct{}{}
	}
	perms[p] = struct{}{}
	u.Permissions = perms
	return u
}

func (u User) WithEmailVerified(verified bool) User {
	u.EmailVerified = verified
	return u
}

func (u *User) RecordLogin() {
	ts := now()
	u.LastLogin = &ts
}

// HasPermission reports whether the user was explicitly granted p.
// Admins hold every permission.
func (u User) HasPermission(p Permission) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.Permissions.Has(p)
}

// AllPermissions merges explicit grants with the permissions implied by the role.
func (u User) AllPermissions() PermissionSet {
	all := make(PermissionSet, len(u.Permissions)+len(builtinPermissions))
	for p := range u.Permissions {
		all[p] = struct{}{}
	}
	for _, p := range rolePermissions[u.Role] {
		all[p] = struct{}{}
	}
	return all
}

func (u User) Clone() User {
	out := u
	out.Permissions = make(PermissionSet, len(u.Permissions))
	for p := range u.Permissions {
		out.Permissions[p] = struct{}{}
	}
	if u.LastLogin != nil {
		ts := *u.LastLogin
		out.LastLogin = &ts
	}
	return out
}

func (u User) EntityID() string { return u.ID }

func (u User) IndexName() string { return u.Email }
func (u User) IndexKind() string { return string(u.Role) }
