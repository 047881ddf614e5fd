// Package normalize cleans user-supplied strings before they are stored
// or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/studyhub/internal/domain/models"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text trims surrounding whitespace from free text, keeping inner lines.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Role returns an invitable role, defaulting to member.
func Role(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.RoleAdmin:
		return models.RoleAdmin
	default:
		return models.RoleMember
	}
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
