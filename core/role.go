package core

import "strings"

// Role is the capability a user holds for the whole session.
// It is resolved once (at token issue) and carried in the JWT claims.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// IsStaff reports whether the role may manage students, fees & notifications.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleTeacher }

func (r Role) IsStudent() bool { return r == RoleStudent }

// Identity is the authenticated caller, passed explicitly to anything that needs it.
type Identity struct {
	UserID string
	Role   Role
}
