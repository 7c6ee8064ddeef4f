package domain

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var roleLevels = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// ParseRole converts s into a Role, reporting false for anything outside the set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r meets or exceeds minimum. Unknown roles never do.
func (r Role) AtLeast(minimum Role) bool {
	lvl, ok := roleLevels[r]
	if !ok {
		return false
	}
	return lvl >= roleLevels[minimum]
}

// User models an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Role      Role
	ExpiresAt time.Time
}

// Authorize checks that claims grant at least the required role.
func Authorize(claims *Claims, required Role) error {
	if claims == nil {
		return ErrMissingToken
	}
	if !claims.Role.AtLeast(required) {
		return ErrInsufficientRole
	}
	return nil
}
