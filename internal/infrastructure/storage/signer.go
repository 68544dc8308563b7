package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const (
	FilesRoute      = "/api/files/"
	downloadPurpose = "download"
)

var ErrInvalidLink = fmt.Errorf("%w: download link", domain.ErrInvalidToken)

// JWTSigner issues HS256 download tokens scoped to a single object path.
type JWTSigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

func NewJWTSigner(secret, baseURL string) *JWTSigner {
	return &JWTSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

type downloadClaims struct {
	Path    string `json:"path"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignedURL(path string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := downloadClaims{
		Path:    path,
		Purpose: downloadPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign download token: %w", err)
	}
	return s.baseURL + FilesRoute + path + "?token=" + url.QueryEscape(token), nil
}

func (s *JWTSigner) Verify(token string) (string, error) {
	var claims downloadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if claims.Purpose != downloadPurpose || claims.Path == "" {
		return "", ErrInvalidLink
	}
	return claims.Path, nil
}
