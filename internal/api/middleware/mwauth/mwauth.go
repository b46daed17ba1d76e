//nolint:revive // exported
package mwauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/msession"
	"github.com/echoline/echoline/pkg/service/ssession"
	"github.com/echoline/echoline/pkg/service/suser"
	"github.com/echoline/echoline/pkg/stoken"
)

type ContextKey int

const (
	SessionKeyCtx ContextKey = iota
)

// SessionCookieName is the cookie the auth collaborator sets at sign-in.
const SessionCookieName = "echoline.session_token"

// NewAuthInterceptor builds the unary interceptor that turns a session
// cookie, or an internal bearer token, into a validated session in
// context. Everything downstream trusts only that context value.
func NewAuthInterceptor(resolver *ssession.Resolver, users suser.UserService, secret []byte) connect.UnaryInterceptorFunc {
	data := authInterceptorData{resolver: resolver, users: users, secret: secret}
	interceptor := func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			return data.intercept(ctx, req, next)
		})
	}
	return connect.UnaryInterceptorFunc(interceptor)
}

type authInterceptorData struct {
	resolver *ssession.Resolver
	users    suser.UserService
	secret   []byte
}

func (d authInterceptorData) intercept(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc) (connect.AnyResponse, error) {
	if auth := req.Header().Get(stoken.TokenHeaderKey); auth != "" {
		return d.interceptBearer(ctx, req, next, auth)
	}

	sess, err := d.resolver.Resolve(ctx, sessionToken(req.Header()))
	if err != nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, resolveMessage(err))
	}
	return next(CreateAuthedContext(ctx, sess), req)
}

func (d authInterceptorData) interceptBearer(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc, header string) (connect.AnyResponse, error) {
	tokenRaw := strings.Split(header, "Bearer ")
	if len(tokenRaw) != 2 {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid token"))
	}

	claims, err := stoken.ValidateJWT(tokenRaw[1], stoken.AccessToken, d.secret)
	if err != nil {
		slog.ErrorContext(ctx, "Error validating JWT token", "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}

	userID, err := idwrap.NewText(claims.Subject)
	if err != nil {
		slog.ErrorContext(ctx, "Error creating ID from claims.Subject", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	// A signed token can outlive its account; check the subject still exists.
	if _, err := d.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, suser.ErrUserNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("User not found"))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	sess, err := d.resolver.ResolveUser(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, resolveMessage(err))
	}
	return next(CreateAuthedContext(ctx, sess), req)
}

// resolveMessage maps resolver sentinels onto the wire messages clients
// render; anything unexpected is flattened to the generic one.
func resolveMessage(err error) error {
	switch {
	case errors.Is(err, ssession.ErrOrganizationNotFound):
		return errors.New("Organization not found")
	case errors.Is(err, ssession.ErrMemberNotFound):
		return errors.New("Member not found")
	default:
		return errors.New("Not authenticated")
	}
}

func sessionToken(header http.Header) string {
	cookie, err := (&http.Request{Header: header}).Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// CreateAuthedContext binds a validated session to the context. Exposed
// for handler tests.
func CreateAuthedContext(ctx context.Context, sess *msession.Validated) context.Context {
	return context.WithValue(ctx, SessionKeyCtx, sess)
}

func GetContextSession(ctx context.Context) (*msession.Validated, error) {
	sess, ok := ctx.Value(SessionKeyCtx).(*msession.Validated)
	if !ok || sess == nil {
		return nil, errors.New("session not found in context")
	}
	return sess, nil
}

func GetContextUserID(ctx context.Context) (idwrap.IDWrap, error) {
	sess, err := GetContextSession(ctx)
	if err != nil {
		return idwrap.IDWrap{}, err
	}
	return sess.UserID, nil
}

// CrashInterceptor recovers handler panics into internal errors.
func CrashInterceptor(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc) (resp connect.AnyResponse, err error) {
	if req.Spec().IsClient {
		return next(ctx, req)
	}

	defer func() {
		if r := recover(); r != nil {
			err = connect.NewError(connect.CodeInternal, fmt.Errorf("panic: %v", r))
			resp = nil
		}
	}()
	return next(ctx, req)
}
