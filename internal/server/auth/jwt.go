// Package auth holds the credential primitives of the server: bcrypt password
// hashing and HS256 bearer tokens.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into the iss claim of every token.
const Issuer = "clipshare"

// Claims holds the registered claims plus the user ID the token is bound to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenIssuer mints and validates HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customizes a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

func NewTokenIssuer(secret []byte, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{secret: secret, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Issue returns a signed token for subjectID that expires ttl from now.
func (t *TokenIssuer) Issue(subjectID string, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", time.Time{}, errors.New("empty subject")
	}

	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: subjectID,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate checks signature, algorithm and expiry and returns the subject.
// Expired tokens yield common.ErrTokenExpired, anything else that is wrong
// with the token yields common.ErrInvalidToken.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	subject := claims.Subject
	if subject == "" || (claims.UserID != "" && claims.UserID != subject) {
		return "", common.ErrInvalidToken
	}

	return subject, nil
}
