// Package ssession resolves raw session tokens into validated,
// organization-bound identities. Sessions are written by the auth
// collaborator; this package only reads them.
package ssession

import (
	"context"
	"database/sql"
	"errors"

	"github.com/echoline/echoline/pkg/dbtime"
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/msession"
	"github.com/echoline/echoline/pkg/store/queries"
)

var (
	ErrNotAuthenticated     = errors.New("ssession: not authenticated")
	ErrOrganizationNotFound = errors.New("ssession: organization not found")
	ErrMemberNotFound       = errors.New("ssession: member not found")
)

type Resolver struct {
	queries *queries.Queries
}

func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{queries: queries.New(db)}
}

// Resolve is the validation gate between a raw token and a session usable
// by authorization checks. Empty, unknown and expired tokens all resolve
// to ErrNotAuthenticated; a live session without organization or member
// binding fails with the respective error.
func (r *Resolver) Resolve(ctx context.Context, token string) (*msession.Validated, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	row, err := r.queries.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if row.ExpiresAt <= dbtime.DBNow().Unix() {
		return nil, ErrNotAuthenticated
	}

	if len(row.ActiveOrganizationID) == 0 {
		return nil, ErrOrganizationNotFound
	}
	orgID, err := idwrap.NewFromBytes(row.ActiveOrganizationID)
	if err != nil {
		return nil, ErrOrganizationNotFound
	}

	if len(row.ActiveMemberID) == 0 {
		return nil, ErrMemberNotFound
	}
	memberID, err := idwrap.NewFromBytes(row.ActiveMemberID)
	if err != nil {
		return nil, ErrMemberNotFound
	}

	return &msession.Validated{
		UserID:         row.UserID,
		OrganizationID: orgID,
		MemberID:       memberID,
	}, nil
}

// ResolveUser synthesizes a validated session for a caller authenticated
// out of band (internal bearer token). The first membership becomes the
// active binding; users without any membership fail like a session without
// an organization.
func (r *Resolver) ResolveUser(ctx context.Context, userID idwrap.IDWrap) (*msession.Validated, error) {
	memberships, err := r.queries.ListMembersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrOrganizationNotFound
	}
	first := memberships[0]
	return &msession.Validated{
		UserID:         userID,
		OrganizationID: first.OrganizationID,
		MemberID:       first.ID,
	}, nil
}
