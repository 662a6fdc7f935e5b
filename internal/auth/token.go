// Package auth issues and verifies the signed session tokens and hashes
// account passwords. Tokens are stateless HS256 JWTs; nothing is stored
// server-side, so a token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"companion-backend/internal/common"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	jwt.StandardClaims
	Kind Kind `json:"kind"`
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) secret(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.accessSecret, c.accessTTL, nil
	case KindRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	}
	return nil, 0, fmt.Errorf("unknown token kind %q", kind)
}

func (c *Codec) Issue(subjectID uuid.UUID, kind Kind) (string, time.Time, error) {
	secret, ttl, err := c.secret(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	issuedAt := c.now()
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subjectID.String(),
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (c *Codec) IssuePair(subjectID uuid.UUID) (*TokenPair, error) {
	access, accessExp, err := c.Issue(subjectID, KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := c.Issue(subjectID, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify returns the subject of a token of the given kind. Failures are one of
// common.ErrTokenMalformed, common.ErrTokenSignature or common.ErrTokenExpired.
func (c *Codec) Verify(tokenString string, kind Kind) (uuid.UUID, error) {
	secret, _, err := c.secret(kind)
	if err != nil {
		return uuid.Nil, err
	}

	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, classify(err)
	}
	if !token.Valid {
		return uuid.Nil, common.ErrTokenMalformed
	}

	// expiry is checked here so it follows the codec clock
	if claims.ExpiresAt == 0 || c.now().Unix() > claims.ExpiresAt {
		return uuid.Nil, common.ErrTokenExpired
	}
	if claims.Kind != kind {
		return uuid.Nil, common.ErrTokenMalformed
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, common.ErrTokenMalformed
	}
	return subjectID, nil
}

func classify(err error) error {
	var verr *jwt.ValidationError
	if !errors.As(err, &verr) {
		return common.ErrTokenMalformed
	}
	switch {
	case verr.Errors&jwt.ValidationErrorMalformed != 0:
		return common.ErrTokenMalformed
	case verr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return common.ErrTokenSignature
	case verr.Errors&jwt.ValidationErrorExpired != 0:
		return common.ErrTokenExpired
	}
	return common.ErrTokenMalformed
}
