package queries

import (
	"database/sql"

	"github.com/echoline/echoline/pkg/idwrap"
)

// Row types mirror table columns one to one. Nullable text maps to
// sql.NullString and nullable id blobs to []byte (nil when NULL);
// conversion to domain models happens in the service layer.

type User struct {
	ID        idwrap.IDWrap
	Email     string
	Name      string
	Image     sql.NullString
	CreatedAt int64
}

type Organization struct {
	ID        idwrap.IDWrap
	Name      string
	Slug      sql.NullString
	Logo      sql.NullString
	CreatedAt int64
}

type Member struct {
	ID             idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	UserID         idwrap.IDWrap
	Role           string
	CreatedAt      int64
}

type MemberWithUserRow struct {
	Member
	UserName  string
	UserEmail string
	UserImage sql.NullString
}

type MembershipWithOrganizationRow struct {
	Member
	OrganizationName string
	OrganizationSlug sql.NullString
}

type Invitation struct {
	ID             idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	Email          string
	Role           string
	Status         string
	Token          string
	InviterID      idwrap.IDWrap
	CreatedAt      int64
	ExpiresAt      int64
}

type Session struct {
	ID                   idwrap.IDWrap
	UserID               idwrap.IDWrap
	Token                string
	ActiveOrganizationID []byte
	ActiveMemberID       []byte
	CreatedAt            int64
	ExpiresAt            int64
}
