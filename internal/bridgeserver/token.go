package bridgeserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a transfer token stays valid.
const DefaultTokenTTL = 10 * time.Minute

// ErrTokenInvalid covers every token rejection: bad signature, expiry, or a
// token issued for another user, bucket or operation.
var ErrTokenInvalid = errors.New("invalid transfer token")

// TokenClaims scope a transfer token to one bucket and operation.
type TokenClaims struct {
	Bucket    string           `json:"bucket"`
	Operation bridge.Operation `json:"op"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks transfer tokens with an HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer; a ttl of zero uses DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("bridgeserver: token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue creates a token for user on bucketID.
func (t *TokenIssuer) Issue(user, bucketID string, op bridge.Operation) (bridge.Token, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := TokenClaims{
		Bucket:    bucketID,
		Operation: op,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return bridge.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return bridge.Token{
		Token:     signed,
		Bucket:    bucketID,
		Operation: op,
		Expires:   expires.UTC(),
	}, nil
}

// Verify checks that token was issued to user for bucketID and op and has
// not expired.
func (t *TokenIssuer) Verify(token, user, bucketID string, op bridge.Operation) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrTokenInvalid)
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	switch {
	case claims.Subject != user:
		return fmt.Errorf("%w: issued to another user", ErrTokenInvalid)
	case claims.Bucket != bucketID:
		return fmt.Errorf("%w: issued for bucket %s", ErrTokenInvalid, claims.Bucket)
	case claims.Operation != op:
		return fmt.Errorf("%w: issued for %s", ErrTokenInvalid, claims.Operation)
	}
	return nil
}
