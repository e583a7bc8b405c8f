package session

import "strings"

// Role is a user's account role. Admin and driver accounts are provisioned
// out-of-band and bypass the email-verification and survey gates entirely.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleDriver  Role = "driver"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a backend role string. Unknown roles map to student,
// the least privileged role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleTeacher:
		return RoleTeacher
	case RoleDriver:
		return RoleDriver
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// Privileged reports whether the role bypasses the onboarding gates.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleDriver
}

// UserRecord is the session's canonical user. It is owned by this package
// and replaced wholesale via UpdateUser, never partially patched.
type UserRecord struct {
	ID         string `json:"id"`
	DisplayID  string `json:"display_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Verified   bool   `json:"verified"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	AvatarURL  string `json:"avatar_url"`
}
