// Package queries is the typed query layer over the sqlite schema. Every
// statement is scoped by the ids it is given; nothing here crosses an
// organization boundary implicitly.
package queries

import (
	"context"
	"database/sql"

	"github.com/echoline/echoline/pkg/idwrap"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ownerPredicate matches the owner token, tolerating legacy comma-joined
// role values whose head token is "owner".
const ownerPredicate = `(role = 'owner' OR role LIKE 'owner,%')`

// --- users ---

type CreateUserParams struct {
	ID        idwrap.IDWrap
	Email     string
	Name      string
	Image     sql.NullString
	CreatedAt int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.Email, arg.Name, arg.Image, arg.CreatedAt)
	return err
}

func (q *Queries) GetUser(ctx context.Context, id idwrap.IDWrap) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, name, image, created_at FROM users WHERE id = ?`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, name, image, created_at FROM users WHERE email = ?`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.CreatedAt)
	return u, err
}

// --- sessions ---

type CreateSessionParams struct {
	ID                   idwrap.IDWrap
	UserID               idwrap.IDWrap
	Token                string
	ActiveOrganizationID []byte
	ActiveMemberID       []byte
	CreatedAt            int64
	ExpiresAt            int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, active_organization_id, active_member_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.Token, arg.ActiveOrganizationID, arg.ActiveMemberID, arg.CreatedAt, arg.ExpiresAt)
	return err
}

func (q *Queries) GetSessionByToken(ctx context.Context, token string) (Session, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, active_organization_id, active_member_id, created_at, expires_at
		 FROM sessions WHERE token = ?`, token)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.ActiveOrganizationID, &s.ActiveMemberID, &s.CreatedAt, &s.ExpiresAt)
	return s, err
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// --- organizations ---

type CreateOrganizationParams struct {
	ID        idwrap.IDWrap
	Name      string
	Slug      sql.NullString
	Logo      sql.NullString
	CreatedAt int64
}

func (q *Queries) CreateOrganization(ctx context.Context, arg CreateOrganizationParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, logo, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Slug, arg.Logo, arg.CreatedAt)
	return err
}

func (q *Queries) GetOrganization(ctx context.Context, id idwrap.IDWrap) (Organization, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug, logo, created_at FROM organizations WHERE id = ?`, id)
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Logo, &o.CreatedAt)
	return o, err
}

// --- members ---

type CreateMemberParams struct {
	ID             idwrap.IDWrap
	OrganizationID idwrap.IDWrap
	UserID         idwrap.IDWrap
	Role           string
	CreatedAt      int64
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO members (id, organization_id, user_id, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.OrganizationID, arg.UserID, arg.Role, arg.CreatedAt)
	return err
}

func (q *Queries) GetMember(ctx context.Context, id idwrap.IDWrap) (Member, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at FROM members WHERE id = ?`, id)
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	return m, err
}

type GetMemberByOrgParams struct {
	OrganizationID idwrap.IDWrap
	ID             idwrap.IDWrap
}

func (q *Queries) GetMemberByOrg(ctx context.Context, arg GetMemberByOrgParams) (Member, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at FROM members
		 WHERE organization_id = ? AND id = ?`, arg.OrganizationID, arg.ID)
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	return m, err
}

type GetMemberByUserAndOrgParams struct {
	UserID         idwrap.IDWrap
	OrganizationID idwrap.IDWrap
}

func (q *Queries) GetMemberByUserAndOrg(ctx context.Context, arg GetMemberByUserAndOrgParams) (Member, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at FROM members
		 WHERE user_id = ? AND organization_id = ?`, arg.UserID, arg.OrganizationID)
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	return m, err
}

type GetMemberByEmailInOrgParams struct {
	OrganizationID idwrap.IDWrap
	Email          string
}

// GetMemberByEmailInOrg relies on the NOCASE collation of users.email for
// the case-insensitive match.
func (q *Queries) GetMemberByEmailInOrg(ctx context.Context, arg GetMemberByEmailInOrgParams) (Member, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at
		 FROM members m JOIN users u ON u.id = m.user_id
		 WHERE m.organization_id = ? AND u.email = ?`, arg.OrganizationID, arg.Email)
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	return m, err
}

func (q *Queries) ListMembersByUser(ctx context.Context, userID idwrap.IDWrap) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at FROM members
		 WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) ListMembersByOrganization(ctx context.Context, orgID idwrap.IDWrap) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at FROM members
		 WHERE organization_id = ? ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) ListMembersWithUsersByOrganization(ctx context.Context, orgID idwrap.IDWrap) ([]MemberWithUserRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at, u.name, u.email, u.image
		 FROM members m JOIN users u ON u.id = m.user_id
		 WHERE m.organization_id = ? ORDER BY m.created_at, m.id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MemberWithUserRow
	for rows.Next() {
		var r MemberWithUserRow
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.Role, &r.CreatedAt,
			&r.UserName, &r.UserEmail, &r.UserImage); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) ListMembershipsWithOrganizationsByUser(ctx context.Context, userID idwrap.IDWrap) ([]MembershipWithOrganizationRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at, o.name, o.slug
		 FROM members m JOIN organizations o ON o.id = m.organization_id
		 WHERE m.user_id = ? ORDER BY m.created_at, m.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MembershipWithOrganizationRow
	for rows.Next() {
		var r MembershipWithOrganizationRow
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.Role, &r.CreatedAt,
			&r.OrganizationName, &r.OrganizationSlug); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateMemberRoleParams struct {
	Role           string
	OrganizationID idwrap.IDWrap
	ID             idwrap.IDWrap
}

// UpdateMemberRole returns the number of rows matched; 0 means the member
// does not belong to the organization.
func (q *Queries) UpdateMemberRole(ctx context.Context, arg UpdateMemberRoleParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE members SET role = ? WHERE organization_id = ? AND id = ?`,
		arg.Role, arg.OrganizationID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type DeleteMemberParams struct {
	OrganizationID idwrap.IDWrap
	ID             idwrap.IDWrap
}

// DeleteMemberUnlessLastOwner deletes the member only if it is not the
// organization's sole owner. The owner check and the delete are one
// statement, so two concurrent removals cannot both pass it.
func (q *Queries) DeleteMemberUnlessLastOwner(ctx context.Context, arg DeleteMemberParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM members
		 WHERE organization_id = ? AND id = ?
		   AND (NOT `+ownerPredicate+`
		        OR EXISTS (SELECT 1 FROM members m2
		                   WHERE m2.organization_id = members.organization_id
		                     AND m2.id <> members.id
		                     AND (m2.role = 'owner' OR m2.role LIKE 'owner,%')))`,
		arg.OrganizationID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type CountOtherOwnersParams struct {
	OrganizationID idwrap.IDWrap
	ExcludeID      idwrap.IDWrap
}

func (q *Queries) CountOtherOwners(ctx context.Context, arg CountOtherOwnersParams) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members
		 WHERE organization_id = ? AND id <> ? AND `+ownerPredicate,
		arg.OrganizationID, arg.ExcludeID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

// --- invitations ---

type CreateInvitationParams struct {
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

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO invitations (id, organization_id, email, role, status, token, inviter_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.OrganizationID, arg.Email, arg.Role, arg.Status, arg.Token, arg.InviterID, arg.CreatedAt, arg.ExpiresAt)
	return err
}

type GetInvitationParams struct {
	OrganizationID idwrap.IDWrap
	ID             idwrap.IDWrap
}

func (q *Queries) GetInvitation(ctx context.Context, arg GetInvitationParams) (Invitation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, organization_id, email, role, status, token, inviter_id, created_at, expires_at
		 FROM invitations WHERE organization_id = ? AND id = ?`, arg.OrganizationID, arg.ID)
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
		&inv.Token, &inv.InviterID, &inv.CreatedAt, &inv.ExpiresAt)
	return inv, err
}

type ListPendingInvitationsParams struct {
	OrganizationID idwrap.IDWrap
	Now            int64
}

// ListPendingInvitationsByOrganization excludes invitations already past
// their expiry; expiry is enforced at read time, no sweeper runs.
func (q *Queries) ListPendingInvitationsByOrganization(ctx context.Context, arg ListPendingInvitationsParams) ([]Invitation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, organization_id, email, role, status, token, inviter_id, created_at, expires_at
		 FROM invitations
		 WHERE organization_id = ? AND status = 'pending' AND expires_at > ?
		 ORDER BY created_at, id`, arg.OrganizationID, arg.Now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
			&inv.Token, &inv.InviterID, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

type DeleteInvitationParams struct {
	OrganizationID idwrap.IDWrap
	ID             idwrap.IDWrap
}

func (q *Queries) DeleteInvitation(ctx context.Context, arg DeleteInvitationParams) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE organization_id = ? AND id = ?`,
		arg.OrganizationID, arg.ID)
	return err
}
