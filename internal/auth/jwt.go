// Package auth signs and verifies caller identities carried as HS256 JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/kirinyoku/stayledger/internal/domain"
)

const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Account returns the account the token was issued to.
func (c *Claims) Account() domain.AccountID {
	return domain.AccountID(c.Subject)
}

type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for account valid for ttl.
func (a *Authenticator) Issue(account domain.AccountID, role string, ttl time.Duration) (string, error) {
	const op = "auth.Authenticator.Issue"

	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(account),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return token, nil
}

// Verify checks the signature, expiry and issuer of tokenStr.
func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	const op = "auth.Authenticator.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w: %w", op, ErrInvalidToken, err)
	}

	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	return c, nil
}
