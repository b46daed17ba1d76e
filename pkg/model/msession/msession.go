//nolint:revive // exported
package msession

import "github.com/echoline/echoline/pkg/idwrap"

// Session is a row written by the auth collaborator. The Active* bindings
// are nil until the collaborator sets an active organization on sign-in.
type Session struct {
	ID                   idwrap.IDWrap
	UserID               idwrap.IDWrap
	Token                string
	ActiveOrganizationID *idwrap.IDWrap
	ActiveMemberID       *idwrap.IDWrap
	CreatedAt            int64
	ExpiresAt            int64
}

// Validated is a session that passed the resolver: both bindings are
// guaranteed present.
type Validated struct {
	UserID         idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	MemberID       idwrap.IDWrap
}
