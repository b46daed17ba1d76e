// Package orgv1 declares the wire schema of the organization RPC surface.
// Messages are plain structs carried by the JSON codec; ids travel in
// their ULID text form.
package orgv1

// Procedure names, as mounted on the HTTP mux.
const (
	MembershipServiceListProcedure = "/org.v1.MembershipService/MembershipList"

	OrganizationServiceMembersListProcedure      = "/org.v1.OrganizationService/OrganizationMembersList"
	OrganizationServiceInvitationsListProcedure  = "/org.v1.OrganizationService/OrganizationInvitationsList"
	OrganizationServiceInviteMemberProcedure     = "/org.v1.OrganizationService/OrganizationInviteMember"
	OrganizationServiceUpdateMemberRoleProcedure = "/org.v1.OrganizationService/OrganizationUpdateMemberRole"
	OrganizationServiceRemoveMemberProcedure     = "/org.v1.OrganizationService/OrganizationRemoveMember"
	OrganizationServiceCancelInvitationProcedure = "/org.v1.OrganizationService/OrganizationCancelInvitation"
)

type Membership struct {
	MemberID         string  `json:"memberId"`
	OrganizationID   string  `json:"organizationId"`
	Role             string  `json:"role"`
	CreatedAt        int64   `json:"createdAt"`
	OrganizationName string  `json:"organizationName"`
	OrganizationSlug *string `json:"organizationSlug"`
}

type OrganizationMember struct {
	MemberID       string  `json:"memberId"`
	OrganizationID string  `json:"organizationId"`
	UserID         string  `json:"userId"`
	Role           string  `json:"role"`
	CreatedAt      int64   `json:"createdAt"`
	UserName       string  `json:"userName"`
	UserEmail      string  `json:"userEmail"`
	UserImage      *string `json:"userImage"`
}

type OrganizationInvitation struct {
	InvitationID   string `json:"invitationId"`
	OrganizationID string `json:"organizationId"`
	InviterID      string `json:"inviterId"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"createdAt"`
	ExpiresAt      int64  `json:"expiresAt"`
}

type MembershipListRequest struct{}

type MembershipListResponse struct {
	Items []*Membership `json:"items"`
}

type OrganizationMembersListRequest struct {
	OrganizationID string `json:"organizationId"`
}

type OrganizationMembersListResponse struct {
	Items []*OrganizationMember `json:"items"`
}

type OrganizationInvitationsListRequest struct {
	OrganizationID string `json:"organizationId"`
}

type OrganizationInvitationsListResponse struct {
	Items []*OrganizationInvitation `json:"items"`
}

type OrganizationInviteMemberRequest struct {
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}

type OrganizationInviteMemberResponse struct {
	Invitation *OrganizationInvitation `json:"invitation"`
}

type OrganizationUpdateMemberRoleRequest struct {
	OrganizationID string `json:"organizationId"`
	MemberID       string `json:"memberId"`
	Role           string `json:"role"`
}

type OrganizationUpdateMemberRoleResponse struct {
	Member *OrganizationMember `json:"member"`
}

type OrganizationRemoveMemberRequest struct {
	OrganizationID string `json:"organizationId"`
	MemberID       string `json:"memberId"`
}

type OrganizationRemoveMemberResponse struct{}

type OrganizationCancelInvitationRequest struct {
	OrganizationID string `json:"organizationId"`
	InvitationID   string `json:"invitationId"`
}

type OrganizationCancelInvitationResponse struct{}
