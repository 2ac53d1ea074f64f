package jwt

import "errors"

var (
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token is expired")
	ErrMissingToken     = errors.New("jwt: missing token")
	ErrMissingSecret    = errors.New("jwt: missing signing secret")
	ErrMissingIdentity  = errors.New("jwt: token carries no user identity")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
)
