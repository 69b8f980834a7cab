// Package identity adapts the external session provider's JWTs into actor
// contexts. The engine never authenticates; it only verifies and unpacks
// what the identity service issued.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	id "lexaudit/pkg/domain"
	"lexaudit/pkg/requestcontext"
)

// Claims are the fields the identity service puts in its tokens.
type Claims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver validates HMAC-signed tokens and extracts the actor.
type Resolver struct {
	signingKey []byte
}

// NewResolver constructs a Resolver with the shared signing key.
func NewResolver(signingKey string) *Resolver {
	return &Resolver{signingKey: []byte(signingKey)}
}

// Resolve implements middleware.ActorResolver.
func (r *Resolver) Resolve(token string) (requestcontext.ActorContext, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.signingKey, nil
	})
	if err != nil {
		return requestcontext.ActorContext{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return requestcontext.ActorContext{}, fmt.Errorf("invalid token")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return requestcontext.ActorContext{}, err
	}
	companyID, err := id.ParseCompanyID(claims.CompanyID)
	if err != nil {
		return requestcontext.ActorContext{}, err
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return requestcontext.ActorContext{}, err
	}

	return requestcontext.ActorContext{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}, nil
}
