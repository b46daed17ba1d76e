//nolint:revive // exported
package stoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/echoline/echoline/pkg/idwrap"
)

// TokenHeaderKey is the header internal callers authenticate with.
const TokenHeaderKey = "Authorization"

type TokenType int8

const (
	AccessToken TokenType = iota
	RefreshToken
)

var (
	ErrInvalidToken     = errors.New("stoken: invalid token")
	ErrWrongTokenType   = errors.New("stoken: wrong token type")
	ErrSigningMethod    = errors.New("stoken: unexpected signing method")
	ErrTokenExpDuration = errors.New("stoken: expire duration must be positive")
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// New mints an HS256 token whose subject is the user id.
func New(userID idwrap.IDWrap, tokenType TokenType, expireIn time.Duration, secret []byte) (string, error) {
	if expireIn <= 0 {
		return "", ErrTokenExpDuration
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expireIn)),
		},
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateJWT parses and verifies a token, checking signature, expiry and
// token type.
func ValidateJWT(tokenString string, tokenType TokenType, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrSigningMethod, t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
