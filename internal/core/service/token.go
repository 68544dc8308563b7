package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const (
	claimEmail     = "email"
	claimRole      = "role"
	claimCompanyID = "company_id"
)

// TokenIssuer signs identity tokens with HS256.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for user.
func (t *TokenIssuer) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":          user.ID,
		claimEmail:     user.Email,
		claimRole:      user.Role,
		claimCompanyID: user.CompanyID,
		"iat":          now.Unix(),
		"exp":          now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// parseIdentity verifies raw and returns the identity it carries. Any failure
// (bad signature, other algorithm, expired) is reported as ErrInvalidToken.
func parseIdentity(secret []byte, raw string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	sub, _ := claims.GetSubject()
	id := domain.Identity{UserID: sub}
	id.Email, _ = claims[claimEmail].(string)
	id.Role, _ = claims[claimRole].(string)
	id.CompanyID, _ = claims[claimCompanyID].(string)
	return id, nil
}
