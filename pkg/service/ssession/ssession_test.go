package ssession_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/service/ssession"
	"github.com/echoline/echoline/pkg/store"
	"github.com/echoline/echoline/pkg/store/queries"
)

type fixture struct {
	ctx      context.Context
	queries  *queries.Queries
	resolver *ssession.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, cleanup, err := store.NewSQLiteMem(ctx)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return &fixture{
		ctx:      ctx,
		queries:  queries.New(db),
		resolver: ssession.NewResolver(db),
	}
}

func (f *fixture) seedUserOrgMember(t *testing.T) (user, org, member idwrap.IDWrap) {
	t.Helper()
	now := time.Now().Unix()
	user = idwrap.NewNow()
	require.NoError(t, f.queries.CreateUser(f.ctx, queries.CreateUserParams{
		ID: user, Email: "s-" + user.String() + "@example.com", CreatedAt: now,
	}))
	org = idwrap.NewNow()
	require.NoError(t, f.queries.CreateOrganization(f.ctx, queries.CreateOrganizationParams{
		ID: org, Name: "org", Slug: sql.NullString{String: "org-" + org.String(), Valid: true}, CreatedAt: now,
	}))
	member = idwrap.NewNow()
	require.NoError(t, f.queries.CreateMember(f.ctx, queries.CreateMemberParams{
		ID: member, OrganizationID: org, UserID: user, Role: "owner", CreatedAt: now,
	}))
	return user, org, member
}

func (f *fixture) seedSession(t *testing.T, user idwrap.IDWrap, org, member []byte, token string, expiresAt int64) {
	t.Helper()
	require.NoError(t, f.queries.CreateSession(f.ctx, queries.CreateSessionParams{
		ID:                   idwrap.NewNow(),
		UserID:               user,
		Token:                token,
		ActiveOrganizationID: org,
		ActiveMemberID:       member,
		CreatedAt:            time.Now().Unix(),
		ExpiresAt:            expiresAt,
	}))
}

func TestResolveEmptyToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.resolver.Resolve(f.ctx, "")
	assert.ErrorIs(t, err, ssession.ErrNotAuthenticated)
}

func TestResolveUnknownToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.resolver.Resolve(f.ctx, "nope")
	assert.ErrorIs(t, err, ssession.ErrNotAuthenticated)
}

func TestResolveExpiredToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user, org, member := f.seedUserOrgMember(t)
	f.seedSession(t, user, org.Bytes(), member.Bytes(), "expired", time.Now().Add(-time.Hour).Unix())

	_, err := f.resolver.Resolve(f.ctx, "expired")
	assert.ErrorIs(t, err, ssession.ErrNotAuthenticated)
}

func TestResolveMissingOrganizationBinding(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user, _, _ := f.seedUserOrgMember(t)
	f.seedSession(t, user, nil, nil, "no-org", time.Now().Add(time.Hour).Unix())

	_, err := f.resolver.Resolve(f.ctx, "no-org")
	assert.ErrorIs(t, err, ssession.ErrOrganizationNotFound)
}

func TestResolveMissingMemberBinding(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user, org, _ := f.seedUserOrgMember(t)
	f.seedSession(t, user, org.Bytes(), nil, "no-member", time.Now().Add(time.Hour).Unix())

	_, err := f.resolver.Resolve(f.ctx, "no-member")
	assert.ErrorIs(t, err, ssession.ErrMemberNotFound)
}

func TestResolveValidSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user, org, member := f.seedUserOrgMember(t)
	f.seedSession(t, user, org.Bytes(), member.Bytes(), "good", time.Now().Add(time.Hour).Unix())

	sess, err := f.resolver.Resolve(f.ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, user, sess.UserID)
	assert.Equal(t, org, sess.OrganizationID)
	assert.Equal(t, member, sess.MemberID)
}

func TestResolveUserSynthesizesSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	user, org, member := f.seedUserOrgMember(t)

	sess, err := f.resolver.ResolveUser(f.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, org, sess.OrganizationID)
	assert.Equal(t, member, sess.MemberID)
}

func TestResolveUserWithoutMemberships(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.resolver.ResolveUser(f.ctx, idwrap.NewNow())
	assert.ErrorIs(t, err, ssession.ErrOrganizationNotFound)
}
