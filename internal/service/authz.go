package service

import "blog-server/internal/domain"

// IsAdmin reports whether the acting identity may perform administrator
// operations. A nil user is the anonymous caller and is never an admin; the
// decision reads the stored role, not an id convention.
func IsAdmin(u *domain.User) bool {
	return u != nil && u.Admin
}
