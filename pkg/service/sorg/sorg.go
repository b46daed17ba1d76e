//nolint:revive // exported
package sorg

import (
	"database/sql"
	"errors"
)

var (
	ErrOrganizationNotFound = errors.New("sorg: organization not found")
	ErrMemberNotFound       = errors.New("sorg: member not found")
	ErrInvitationNotFound   = errors.New("sorg: invitation not found")
	ErrLastOwner            = errors.New("sorg: cannot remove only owner")
)

// OrgService bundles the reader and writer over one database handle.
// Signup-time mutations (organization provisioning, member creation on
// invitation acceptance) arrive through the auth collaborator; the API
// layer mutates membership and invitations through the Writer.
type OrgService struct {
	reader *Reader
	writer *Writer
}

func New(db *sql.DB) OrgService {
	return OrgService{
		reader: NewReader(db),
		writer: NewWriter(db),
	}
}

func (s OrgService) Reader() *Reader { return s.reader }
func (s OrgService) Writer() *Writer { return s.writer }
