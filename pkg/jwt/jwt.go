package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// User is the identity object issued by the account service.
type User struct {
	ID string `json:"id"`
}

// Claims accepts both token shapes in circulation: {"user":{"id":...}} and
// a plain registered "sub" claim.
type Claims struct {
	gojwt.RegisteredClaims
	User *User `json:"user,omitempty"`
}

// UserID returns user.id when present, otherwise the subject.
func (c *Claims) UserID() string {
	if c.User != nil && c.User.ID != "" {
		return c.User.ID
	}
	return c.Subject
}

// Service signs and verifies HS256 tokens.
type Service struct {
	secret []byte
	leeway time.Duration
}

// New creates a Service for the given shared secret.
func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Service{secret: []byte(secret), leeway: 5 * time.Second}, nil
}

// Generate signs claims with HS256.
func (s *Service) Generate(claims *Claims) (string, error) {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	return token, nil
}

// Parse verifies the signature and temporal claims of token and returns its
// claims. Tokens without a user identity are rejected.
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithLeeway(s.leeway),
	)
	switch {
	case err == nil:
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return nil, errors.Join(ErrInvalidSignature, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.UserID() == "" {
		return nil, ErrMissingIdentity
	}
	return claims, nil
}
