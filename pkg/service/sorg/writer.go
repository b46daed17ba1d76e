package sorg

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/echoline/echoline/pkg/dbtime"
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/morg"
	"github.com/echoline/echoline/pkg/store/queries"
)

type Writer struct {
	db      *sql.DB
	queries *queries.Queries
}

func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db, queries: queries.New(db)}
}

func txnRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("rollback failed", "error", err)
	}
}

func ptrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateOrganization provisions an organization together with its first
// member, who is always the owner. Both rows commit or neither does.
func (w *Writer) CreateOrganization(ctx context.Context, org *morg.Organization, ownerUserID idwrap.IDWrap) (*morg.Member, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer txnRollback(tx)

	q := w.queries.WithTx(tx)
	if err := q.CreateOrganization(ctx, queries.CreateOrganizationParams{
		ID:        org.ID,
		Name:      org.Name,
		Slug:      ptrToNull(org.Slug),
		Logo:      ptrToNull(org.Logo),
		CreatedAt: org.CreatedAt,
	}); err != nil {
		return nil, err
	}

	owner := &morg.Member{
		ID:             idwrap.NewNow(),
		UserID:         ownerUserID,
		OrganizationID: org.ID,
		Role:           morg.RoleOwner,
		CreatedAt:      org.CreatedAt,
	}
	if err := q.CreateMember(ctx, queries.CreateMemberParams{
		ID:             owner.ID,
		OrganizationID: owner.OrganizationID,
		UserID:         owner.UserID,
		Role:           string(owner.Role),
		CreatedAt:      owner.CreatedAt,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return owner, nil
}

func (w *Writer) CreateMember(ctx context.Context, member *morg.Member) error {
	return w.queries.CreateMember(ctx, queries.CreateMemberParams{
		ID:             member.ID,
		OrganizationID: member.OrganizationID,
		UserID:         member.UserID,
		Role:           string(member.Role),
		CreatedAt:      member.CreatedAt,
	})
}

// UpdateMemberRole updates the role of a member scoped by organization.
// Returns ErrMemberNotFound when no row matches the pair.
func (w *Writer) UpdateMemberRole(ctx context.Context, orgID, memberID idwrap.IDWrap, role morg.Role) error {
	n, err := w.queries.UpdateMemberRole(ctx, queries.UpdateMemberRoleParams{
		Role:           string(role),
		OrganizationID: orgID,
		ID:             memberID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RemoveMember deletes a member unless that would leave the organization
// without an owner. The existence check and the owner-guarded delete run in
// one transaction so concurrent removals of the last two owners cannot both
// commit.
func (w *Writer) RemoveMember(ctx context.Context, orgID, memberID idwrap.IDWrap) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txnRollback(tx)

	q := w.queries.WithTx(tx)
	n, err := q.DeleteMemberUnlessLastOwner(ctx, queries.DeleteMemberParams{
		OrganizationID: orgID,
		ID:             memberID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "not there" from "guarded": the member row still
		// existing means the guard blocked the delete.
		_, err := q.GetMemberByOrg(ctx, queries.GetMemberByOrgParams{
			OrganizationID: orgID,
			ID:             memberID,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}
		return ErrLastOwner
	}
	return tx.Commit()
}

// CreateInvitation persists a pending invitation. The id, token and expiry
// are caller-supplied; expiry is CreatedAt plus morg.InvitationTTL.
func (w *Writer) CreateInvitation(ctx context.Context, inv *morg.Invitation) error {
	return w.queries.CreateInvitation(ctx, queries.CreateInvitationParams{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		Status:         string(inv.Status),
		Token:          inv.Token,
		InviterID:      inv.InviterID,
		CreatedAt:      inv.CreatedAt,
		ExpiresAt:      inv.ExpiresAt,
	})
}

// DeleteInvitation is an unconditional, idempotent delete: removing an
// invitation that is already gone is a no-op.
func (w *Writer) DeleteInvitation(ctx context.Context, orgID, invitationID idwrap.IDWrap) error {
	return w.queries.DeleteInvitation(ctx, queries.DeleteInvitationParams{
		OrganizationID: orgID,
		ID:             invitationID,
	})
}

// Now returns the timestamp new rows should carry.
func Now() int64 {
	return dbtime.DBNow().Unix()
}
