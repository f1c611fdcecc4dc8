// Package auth verifies and issues bearer credentials and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window of credentials issued at login.
const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	errBadSubject = errors.New("token subject must be a positive user id")
	errBadRole    = errors.New("token role is not recognised")
)

// claims is the credential payload: {id, role, iat, exp}.
type claims struct {
	UserID int64       `json:"id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *claims) Validate() error {
	if c.UserID <= 0 {
		return errBadSubject
	}
	if !c.Role.Valid() {
		return errBadRole
	}
	return nil
}

type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokens(key []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{key: key, ttl: ttl, now: time.Now}
}

// Issue signs a credential for u that expires after the configured TTL.
func (t *Tokens) Issue(u *domain.User) (string, error) {
	now := t.now()
	c := &claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify turns the value of an Authorization header into a verified identity.
// A missing header, a non-Bearer scheme, or an empty token is Unauthenticated;
// a token that is present but fails verification is InvalidCredential.
func (t *Tokens) Verify(header string) (domain.Identity, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return domain.Identity{}, apperr.Unauthenticated("missing bearer token")
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Identity{}, apperr.InvalidCredential(err)
	}

	return domain.Identity{SubjectID: c.UserID, Role: c.Role}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
