// Package auth checks the shared tokens carried by service calls.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates the token presented with a call.
type Validator interface {
	Validate(token string) error
}

// Token accepts exactly one shared token. The empty Token accepts nothing.
type Token string

func (t Token) Validate(token string) error {
	want := strings.TrimSpace(string(t))
	if want == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.TrimSpace(token))) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(token string) error

func (f ValidatorFunc) Validate(token string) error {
	return f(token)
}

// Open accepts every token.
var Open Validator = ValidatorFunc(func(string) error { return nil })

// ForToken returns Open when token is blank and a Token check otherwise.
func ForToken(token string) Validator {
	if strings.TrimSpace(token) == "" {
		return Open
	}
	return Token(token)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
