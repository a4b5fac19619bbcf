package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Rejection reasons surfaced to a connecting client. The strings are
// part of the handshake contract.
var (
	ErrNoToken        = errors.New("Authentication error: No token provided")
	ErrExpiredToken   = errors.New("Token expired")
	ErrInvalidToken   = errors.New("Invalid token")
	ErrInvalidPayload = errors.New("Invalid token payload")
)

// Validator checks bearer credentials presented at handshake time. It
// is stateless: validation is a pure function of (token, secret).
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate verifies the token's signature and expiry and returns the
// embedded user ID. It performs no side effects.
func (v *Validator) Validate(rawToken string) (string, error) {
	if rawToken == "" {
		return "", ErrNoToken
	}

	token, err := jwt.ParseWithClaims(rawToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidPayload
	}
	return claims.Subject, nil
}

// Issuer mints the tokens the Validator accepts. The login handler is
// its only caller.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
