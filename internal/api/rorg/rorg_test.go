package rorg_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/echoline/echoline/internal/api/middleware/mwauth"
	"github.com/echoline/echoline/internal/api/rorg"
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/msession"
	"github.com/echoline/echoline/pkg/rpc/orgv1"
	"github.com/echoline/echoline/pkg/service/sorg"
	"github.com/echoline/echoline/pkg/store"
	"github.com/echoline/echoline/pkg/store/queries"
)

type testEnv struct {
	ctx     context.Context
	db      *sql.DB
	queries *queries.Queries
	handler rorg.OrgServiceRPC
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, cleanup, err := store.NewSQLiteMem(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cleanup)

	orgService := sorg.New(db)
	handler := rorg.New(rorg.OrgServiceRPCDeps{
		Reader: orgService.Reader(),
		Writer: orgService.Writer(),
	})

	return &testEnv{
		ctx:     ctx,
		db:      db,
		queries: queries.New(db),
		handler: handler,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) idwrap.IDWrap {
	t.Helper()
	userID := idwrap.NewNow()
	err := e.queries.CreateUser(e.ctx, queries.CreateUserParams{
		ID:        userID,
		Email:     email,
		Name:      "user " + email,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return userID
}

func (e *testEnv) createOrg(t *testing.T, name string) idwrap.IDWrap {
	t.Helper()
	orgID := idwrap.NewNow()
	err := e.queries.CreateOrganization(e.ctx, queries.CreateOrganizationParams{
		ID:        orgID,
		Name:      name,
		Slug:      sql.NullString{String: name + "-slug", Valid: true},
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return orgID
}

func (e *testEnv) createMember(t *testing.T, userID, orgID idwrap.IDWrap, role string) idwrap.IDWrap {
	t.Helper()
	memberID := idwrap.NewNow()
	err := e.queries.CreateMember(e.ctx, queries.CreateMemberParams{
		ID:             memberID,
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		CreatedAt:      time.Now().Unix(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return memberID
}

func (e *testEnv) authedCtx(userID, orgID, memberID idwrap.IDWrap) context.Context {
	return mwauth.CreateAuthedContext(e.ctx, &msession.Validated{
		UserID:         userID,
		OrganizationID: orgID,
		MemberID:       memberID,
	})
}

func (e *testEnv) countInvitations(t *testing.T) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM invitations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

// org1 from the shared scenario: Alice owner, Bob admin, Carol member.
type org1 struct {
	orgID    idwrap.IDWrap
	alice    idwrap.IDWrap
	aliceMem idwrap.IDWrap
	bob      idwrap.IDWrap
	bobMem   idwrap.IDWrap
	carol    idwrap.IDWrap
	carolMem idwrap.IDWrap
}

func seedOrg1(t *testing.T, e *testEnv) org1 {
	t.Helper()
	var s org1
	s.orgID = e.createOrg(t, "org1")
	s.alice = e.createUser(t, "alice@example.com")
	s.aliceMem = e.createMember(t, s.alice, s.orgID, "owner")
	s.bob = e.createUser(t, "bob@example.com")
	s.bobMem = e.createMember(t, s.bob, s.orgID, "admin")
	s.carol = e.createUser(t, "carol@example.com")
	s.carolMem = e.createMember(t, s.carol, s.orgID, "member")
	return s
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("expected code %v, got %v (%v)", code, got, err)
	}
}

func TestMembersList_PlainMemberCanRead(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.carol, s.orgID, s.carolMem)
	resp, err := e.handler.OrganizationMembersList(ctx, connect.NewRequest(&orgv1.OrganizationMembersListRequest{
		OrganizationID: s.orgID.String(),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Msg.Items) != 3 {
		t.Fatalf("expected 3 members, got %d", len(resp.Msg.Items))
	}
	for _, item := range resp.Msg.Items {
		if item.UserEmail == "" || item.UserName == "" {
			t.Fatalf("member %s missing joined profile fields", item.MemberID)
		}
	}
}

func TestMembersList_OutsiderDenied(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	otherOrg := e.createOrg(t, "org2")
	eve := e.createUser(t, "eve@example.com")
	eveMem := e.createMember(t, eve, otherOrg, "owner")

	ctx := e.authedCtx(eve, otherOrg, eveMem)
	_, err := e.handler.OrganizationMembersList(ctx, connect.NewRequest(&orgv1.OrganizationMembersListRequest{
		OrganizationID: s.orgID.String(),
	}))
	wantCode(t, err, connect.CodeUnauthenticated)
}

func TestInviteMember_PlainMemberForbidden(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.carol, s.orgID, s.carolMem)
	_, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "dave@x.com",
		Role:           "member",
	}))
	wantCode(t, err, connect.CodePermissionDenied)

	if n := e.countInvitations(t); n != 0 {
		t.Fatalf("expected no invitation rows, got %d", n)
	}
}

func TestInviteMember_OutsiderNoMutation(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	otherOrg := e.createOrg(t, "org2")
	eve := e.createUser(t, "eve@example.com")
	eveMem := e.createMember(t, eve, otherOrg, "owner")

	ctx := e.authedCtx(eve, otherOrg, eveMem)
	_, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "dave@x.com",
		Role:           "member",
	}))
	wantCode(t, err, connect.CodeUnauthenticated)

	if n := e.countInvitations(t); n != 0 {
		t.Fatalf("expected no invitation rows, got %d", n)
	}
}

func TestInviteMember_AdminSucceeds(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	resp, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "Dave@X.com",
		Role:           "member",
	}))
	if err != nil {
		t.Fatal(err)
	}

	inv := resp.Msg.Invitation
	if inv == nil {
		t.Fatal("expected invitation in response")
	}
	if inv.Status != "pending" {
		t.Fatalf("expected status pending, got %q", inv.Status)
	}
	if inv.Email != "dave@x.com" {
		t.Fatalf("expected lowercased email, got %q", inv.Email)
	}
	if got, want := inv.ExpiresAt-inv.CreatedAt, int64(48*60*60); got != want {
		t.Fatalf("expected expiry exactly 48h after creation, got %d seconds", got)
	}
}

func TestInviteMember_DuplicateEmailRejected(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	// Carol is already a member; case must not matter.
	_, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "CAROL@example.com",
		Role:           "member",
	}))
	wantCode(t, err, connect.CodeAlreadyExists)

	if n := e.countInvitations(t); n != 0 {
		t.Fatalf("expected no invitation rows, got %d", n)
	}
}

func TestInviteMember_OwnerRoleRejected(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.alice, s.orgID, s.aliceMem)
	_, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "dave@x.com",
		Role:           "owner",
	}))
	wantCode(t, err, connect.CodeInvalidArgument)
}

func TestUpdateMemberRole_OwnerImmutable(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	_, err := e.handler.OrganizationUpdateMemberRole(ctx, connect.NewRequest(&orgv1.OrganizationUpdateMemberRoleRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       s.aliceMem.String(),
		Role:           "admin",
	}))
	wantCode(t, err, connect.CodeFailedPrecondition)
}

func TestUpdateMemberRole_Succeeds(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	resp, err := e.handler.OrganizationUpdateMemberRole(ctx, connect.NewRequest(&orgv1.OrganizationUpdateMemberRoleRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       s.carolMem.String(),
		Role:           "admin",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Msg.Member.Role != "admin" {
		t.Fatalf("expected role admin, got %q", resp.Msg.Member.Role)
	}
	// The response carries the re-joined profile, not the raw update.
	if resp.Msg.Member.UserEmail != "carol@example.com" {
		t.Fatalf("expected joined profile email, got %q", resp.Msg.Member.UserEmail)
	}
}

func TestUpdateMemberRole_WrongOrganization(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	otherOrg := e.createOrg(t, "org2")
	eve := e.createUser(t, "eve@example.com")
	eveMem := e.createMember(t, eve, otherOrg, "member")

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	_, err := e.handler.OrganizationUpdateMemberRole(ctx, connect.NewRequest(&orgv1.OrganizationUpdateMemberRoleRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       eveMem.String(),
		Role:           "admin",
	}))
	wantCode(t, err, connect.CodeNotFound)
}

func TestRemoveMember_LastOwnerProtected(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	_, err := e.handler.OrganizationRemoveMember(ctx, connect.NewRequest(&orgv1.OrganizationRemoveMemberRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       s.aliceMem.String(),
	}))
	wantCode(t, err, connect.CodeFailedPrecondition)
}

func TestRemoveMember_SecondOwnerAllowsRemoval(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	eve := e.createUser(t, "eve@example.com")
	e.createMember(t, eve, s.orgID, "owner")

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)
	_, err := e.handler.OrganizationRemoveMember(ctx, connect.NewRequest(&orgv1.OrganizationRemoveMemberRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       s.aliceMem.String(),
	}))
	if err != nil {
		t.Fatal(err)
	}

	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM members WHERE id = ?`, s.aliceMem).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("expected alice's membership to be deleted")
	}
}

func TestRemoveMember_PlainMemberAllowed(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.alice, s.orgID, s.aliceMem)
	_, err := e.handler.OrganizationRemoveMember(ctx, connect.NewRequest(&orgv1.OrganizationRemoveMemberRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       s.carolMem.String(),
	}))
	if err != nil {
		t.Fatal(err)
	}
}

func TestRemoveMember_NotFound(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.alice, s.orgID, s.aliceMem)
	_, err := e.handler.OrganizationRemoveMember(ctx, connect.NewRequest(&orgv1.OrganizationRemoveMemberRequest{
		OrganizationID: s.orgID.String(),
		MemberID:       idwrap.NewNow().String(),
	}))
	wantCode(t, err, connect.CodeNotFound)
}

func TestCancelInvitation_Idempotent(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.bob, s.orgID, s.bobMem)

	resp, err := e.handler.OrganizationInviteMember(ctx, connect.NewRequest(&orgv1.OrganizationInviteMemberRequest{
		OrganizationID: s.orgID.String(),
		Email:          "dave@x.com",
		Role:           "member",
	}))
	if err != nil {
		t.Fatal(err)
	}

	cancel := func(id string) error {
		_, err := e.handler.OrganizationCancelInvitation(ctx, connect.NewRequest(&orgv1.OrganizationCancelInvitationRequest{
			OrganizationID: s.orgID.String(),
			InvitationID:   id,
		}))
		return err
	}

	if err := cancel(resp.Msg.Invitation.InvitationID); err != nil {
		t.Fatal(err)
	}
	// Second cancel of the same invitation is a no-op.
	if err := cancel(resp.Msg.Invitation.InvitationID); err != nil {
		t.Fatal(err)
	}
	// So is cancelling an id that never existed.
	if err := cancel(idwrap.NewNow().String()); err != nil {
		t.Fatal(err)
	}
}

func TestCancelInvitation_PlainMemberForbidden(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	ctx := e.authedCtx(s.carol, s.orgID, s.carolMem)
	_, err := e.handler.OrganizationCancelInvitation(ctx, connect.NewRequest(&orgv1.OrganizationCancelInvitationRequest{
		OrganizationID: s.orgID.String(),
		InvitationID:   idwrap.NewNow().String(),
	}))
	wantCode(t, err, connect.CodePermissionDenied)
}

func TestInvitationsList_ExcludesExpired(t *testing.T) {
	t.Parallel()
	e := setupTest(t)
	s := seedOrg1(t, e)

	now := time.Now().Unix()
	err := e.queries.CreateInvitation(e.ctx, queries.CreateInvitationParams{
		ID:             idwrap.NewNow(),
		OrganizationID: s.orgID,
		Email:          "stale@x.com",
		Role:           "member",
		Status:         "pending",
		Token:          "stale-token",
		InviterID:      s.alice,
		CreatedAt:      now - 3*24*60*60,
		ExpiresAt:      now - 24*60*60,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = e.queries.CreateInvitation(e.ctx, queries.CreateInvitationParams{
		ID:             idwrap.NewNow(),
		OrganizationID: s.orgID,
		Email:          "fresh@x.com",
		Role:           "member",
		Status:         "pending",
		Token:          "fresh-token",
		InviterID:      s.alice,
		CreatedAt:      now,
		ExpiresAt:      now + 48*60*60,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := e.authedCtx(s.carol, s.orgID, s.carolMem)
	resp, err := e.handler.OrganizationInvitationsList(ctx, connect.NewRequest(&orgv1.OrganizationInvitationsListRequest{
		OrganizationID: s.orgID.String(),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Msg.Items) != 1 {
		t.Fatalf("expected 1 pending invitation, got %d", len(resp.Msg.Items))
	}
	if resp.Msg.Items[0].Email != "fresh@x.com" {
		t.Fatalf("expected the unexpired invitation, got %q", resp.Msg.Items[0].Email)
	}
}
