// Package authz answers role questions about the current request's user.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/memoria/internal/app/system/auth"
)

// Role names recognised by the yearbook.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleMember     = "member"
)

// AdminRoles are the roles that may review entries.
var AdminRoles = []string{RoleAdmin, RoleSuperAdmin}

// UserCtx returns the user's id, lowercased role and a found flag. Without a
// user (or with a blank id) it returns "", "visitor", false.
func UserCtx(r *http.Request) (userID, role string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || strings.TrimSpace(user.ID) == "" {
		return "", "visitor", false
	}
	return user.ID, strings.ToLower(user.Role), true
}

// IsAdminRole reports whether role may review entries.
func IsAdminRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	return role == RoleAdmin || role == RoleSuperAdmin
}

// IsAdmin reports whether the current user is an admin or superadmin.
func IsAdmin(r *http.Request) bool {
	_, role, ok := UserCtx(r)
	return ok && IsAdminRole(role)
}

// IsSuperAdmin reports whether the current user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	_, role, ok := UserCtx(r)
	return ok && role == RoleSuperAdmin
}

// HasAnyRole reports whether the current user holds one of roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	_, cur, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if strings.EqualFold(strings.TrimSpace(want), cur) {
			return true
		}
	}
	return false
}
