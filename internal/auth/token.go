package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/homecare-coop/backoffice/internal/utils"
)

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	UserUid string `json:"uid"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the HS256 session tokens carried in the session cookie.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  utils.Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clock utils.Clock) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for the user and its expiry.
func (i *TokenIssuer) Issue(userUid string, role Role) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		UserUid: userUid,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	// expiry is checked against the injected clock below
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyExpiresAt(i.clock.Now(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	if claims.UserUid == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
