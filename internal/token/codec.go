// Package token extracts claims from signed tokens without verifying signatures.
//
// Signature verification is the identity service's job on every protected
// call; the client only needs the expiry and identity claims to decide
// whether a cached credential is still usable. Trust in the payload is
// delegated to transport security.
package token

import (
	"fmt"
	"time"

	"github.com/and161185/ident-cli/internal/errs"
	"github.com/and161185/ident-cli/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// wireClaims matches the identity service's JWT payload field names.
type wireClaims struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Decode parses the token payload and returns its claims. It fails closed:
// unparseable input or a missing expiry claim yields errs.ErrTokenDecode,
// never partial data. No network, no signature check.
func Decode(raw string) (model.Claims, error) {
	var wc wireClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &wc); err != nil {
		return model.Claims{}, fmt.Errorf("%w: %w", errs.ErrTokenDecode, err)
	}
	if wc.ExpiresAt == nil {
		return model.Claims{}, fmt.Errorf("%w: missing exp claim", errs.ErrTokenDecode)
	}
	return model.Claims{
		ExpiresAt: wc.ExpiresAt.Unix(),
		FirstName: wc.FirstName,
		LastName:  wc.LastName,
		Email:     wc.Email,
		Username:  wc.Username,
	}, nil
}

// Expired reports whether the claims are past their validity window at now.
// Seconds granularity, no clock-skew tolerance: the token is expired the
// moment its exp second is reached.
func Expired(c model.Claims, now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}
