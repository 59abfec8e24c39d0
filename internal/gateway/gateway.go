// Package gateway defines the contract for the remote identity service.
//
// The service owns credential verification; the client only consumes the
// five operations below and normalizes their failures.
package gateway

import (
	"context"
	"fmt"

	"github.com/and161185/ident-cli/internal/model"
)

// Gateway is the remote identity service as seen by the session core.
type Gateway interface {
	// IssueTokens exchanges user credentials for a token pair.
	IssueTokens(ctx context.Context, form model.LoginForm) (model.TokenPair, error)
	// RefreshTokens exchanges an unexpired refresh token for a new pair.
	// The old refresh token is invalid after a successful call.
	RefreshTokens(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// CreateAccount registers a new user and echoes the created profile.
	CreateAccount(ctx context.Context, form model.SignupForm) (model.Profile, error)
	// RequestPasswordReset asks the service to mail a one-time code.
	RequestPasswordReset(ctx context.Context, email string) error
	// ConfirmPasswordReset redeems the mailed code against a reset ticket.
	ConfirmPasswordReset(ctx context.Context, form model.ChangeForm, ticket string) error
}

// Error is a remote rejection. Detail carries the service's human-readable
// message and is the only error text ever surfaced to the user.
type Error struct {
	Status int    // HTTP status, 0 when unknown
	Detail string // service-provided detail message
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity service rejected request (status %d): %s", e.Status, e.Detail)
}

// FallbackDetail is shown when a rejection arrives without a detail message,
// which is a contract violation on the service side. Surfacing something
// beats swallowing the failure.
const FallbackDetail = "The request could not be completed. Please try again later."
