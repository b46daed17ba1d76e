//nolint:revive // exported
package morg

import (
	"fmt"
	"strings"
	"time"

	"github.com/echoline/echoline/pkg/idwrap"
)

// Role is the single role a member holds in an organization. The set is
// closed: anything outside it is rejected at the parse boundary.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole validates a role token. Legacy rows written by the auth
// collaborator may carry a comma-joined list; the head token is the
// effective role, so callers scanning storage values should use
// ParseStoredRole instead.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// ParseStoredRole parses a role column value, taking the head token of a
// comma-joined list.
func ParseStoredRole(s string) (Role, error) {
	head, _, _ := strings.Cut(s, ",")
	return ParseRole(head)
}

// IsManager reports whether the role may mutate membership and
// invitations.
func (r Role) IsManager() bool {
	return r == RoleOwner || r == RoleAdmin
}

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusRejected InvitationStatus = "rejected"
	StatusCanceled InvitationStatus = "canceled"
)

// InvitationTTL is how long a pending invitation stays valid.
const InvitationTTL = 48 * time.Hour

type Organization struct {
	ID        idwrap.IDWrap
	Name      string
	Slug      *string
	Logo      *string
	CreatedAt int64
}

type Member struct {
	ID             idwrap.IDWrap
	UserID         idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	Role           Role
	CreatedAt      int64
}

// MemberWithUser is a member row joined with the user profile fields the
// dashboard roster displays.
type MemberWithUser struct {
	Member
	UserName  string
	UserEmail string
	UserImage *string
}

// MembershipWithOrganization is one of the caller's own memberships joined
// with an organization summary.
type MembershipWithOrganization struct {
	Member
	OrganizationName string
	OrganizationSlug *string
}

type Invitation struct {
	ID             idwrap.IDWrap
	Email          string
	Token          string
	InviterID      idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	Role           Role
	Status         InvitationStatus
	CreatedAt      int64
	ExpiresAt      int64
}
