package models

// User roles within a study group.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// InvitableRoles are the roles an invitation may grant. Ownership is never
// handed out through an invitation.
var InvitableRoles = []string{RoleAdmin, RoleMember}

// Account and study group statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
