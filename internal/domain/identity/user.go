package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is the acting identity of a bulk run.
// Authentication lives outside this service; a User here only carries
// identity and the permission codes used for per-record capability checks.
type User struct {
	shared.BaseEntity
	Username    string
	Email       string
	DisplayName string
	Status      UserStatus
	Permissions []Permission
}

// NewUser creates a new active user
func NewUser(username, email string, permissions ...Permission) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		BaseEntity:  shared.NewBaseEntity(),
		Username:    strings.ToLower(strings.TrimSpace(username)),
		Email:       strings.TrimSpace(email),
		Status:      UserStatusActive,
		Permissions: normalizePermissions(permissions),
	}, nil
}

// IsActive returns true if the user may act
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HasPermission reports whether the user is active and holds the permission.
// The wildcard "*" grants everything; "resource:*" grants every action on a resource.
func (u *User) HasPermission(p Permission) bool {
	if u == nil || !u.IsActive() {
		return false
	}
	for _, held := range u.Permissions {
		if held == PermissionAll || held == p {
			return true
		}
		if strings.HasSuffix(string(held), ":*") &&
			strings.HasPrefix(string(p), strings.TrimSuffix(string(held), "*")) {
			return true
		}
	}
	return false
}

// Grant adds permissions to the user
func (u *User) Grant(permissions ...Permission) {
	u.Permissions = normalizePermissions(append(u.Permissions, permissions...))
	u.Touch()
}

// Revoke removes a permission from the user
func (u *User) Revoke(p Permission) {
	kept := u.Permissions[:0]
	for _, held := range u.Permissions {
		if held != p {
			kept = append(kept, held)
		}
	}
	u.Permissions = kept
	u.Touch()
}

// Deactivate prevents the user from acting
func (u *User) Deactivate() {
	u.Status = UserStatusDeactivated
	u.Touch()
}

// Name returns the display name, falling back to the username
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// ParseUserID parses a user ID string
func ParseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_USER_ID", "Invalid user ID: "+s)
	}
	return id, nil
}

func normalizePermissions(permissions []Permission) []Permission {
	seen := make(map[Permission]struct{}, len(permissions))
	out := make([]Permission, 0, len(permissions))
	for _, p := range permissions {
		p = Permission(strings.TrimSpace(string(p)))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}
