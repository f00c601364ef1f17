package security

import (
	"errors"
	"slices"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ActorClaims are the claims carried by access tokens issued to back-office
// staff. Tokens are issued elsewhere; this package only verifies them.
type ActorClaims struct {
	ActorID  int32     `json:"user_id"`
	Type     TokenType `json:"type"`
	Roles    []string  `json:"roles,omitempty"`
	BranchID int32     `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *ActorClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

type TokenVerifier interface {
	ValidateAccessToken(tokenString string) (*ActorClaims, error)
}

type tokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier checks HS256 signatures against secret. An empty issuer
// accepts tokens from any issuer.
func NewTokenVerifier(secret, issuer string) TokenVerifier {
	return &tokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (v *tokenVerifier) ValidateAccessToken(tokenString string) (*ActorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.ActorID == 0 && claims.Subject != "" {
		uid, err := strconv.Atoi(claims.Subject)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.ActorID = int32(uid)
	}
	if claims.ActorID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
