// Package workflow implements the five credential workflows: login, signup,
// retrieve-password, change-password and refresh-token.
//
// Each workflow is a single unit of work with exactly one success path and
// one failure path: invoke the gateway, then apply a fixed side-effect
// recipe (store update, identity update, navigation) or normalize the error
// into a notification. Nothing here retries, and nothing here is fatal.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/ident-cli/internal/gateway"
	"github.com/and161185/ident-cli/internal/model"
	"github.com/and161185/ident-cli/internal/routes"
	"github.com/and161185/ident-cli/internal/session"
	"github.com/and161185/ident-cli/internal/store"
	"github.com/and161185/ident-cli/internal/token"
)

// Navigator is the redirect primitive supplied by the presentation layer.
type Navigator interface {
	GoTo(path string)
}

// Notifier is the notification sink supplied by the presentation layer.
type Notifier interface {
	Show(n model.Notification)
}

// Notification copy. The retrieve-password failure content deliberately
// differs from the success content only by the validity clause, so the two
// outcomes stay indistinguishable to a caller probing for account existence.
const (
	titleError   = "Error"
	titleSuccess = "Success"
	titleCreated = "Success!"

	retrieveSentContent    = "If the account exists, an email has been sent to recover your password"
	retrieveValidityClause = ", valid for the next 5 minutes"

	passwordChangedContent = "Your password has been changed successfully, you can now sign in"
)

// Flows bundles the workflow dependencies. All side effects flow through the
// injected collaborators; the struct itself is stateless.
type Flows struct {
	gw     gateway.Gateway
	store  store.Store
	sess   *session.Session
	nav    Navigator
	notify Notifier
	log    *zap.Logger
}

// New constructs the workflow set. A nil logger disables logging.
func New(gw gateway.Gateway, st store.Store, sess *session.Session, nav Navigator, notify Notifier, log *zap.Logger) *Flows {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flows{gw: gw, store: st, sess: sess, nav: nav, notify: notify, log: log}
}

// Login exchanges credentials for a token pair, stores it, derives the
// identity from the new access token and navigates home. On failure it shows
// the service's detail message and stays put.
func (f *Flows) Login(ctx context.Context, form model.LoginForm) error {
	pair, err := f.gw.IssueTokens(ctx, form)
	if err != nil {
		f.fail("login", err)
		return err
	}

	// The pair is durably stored before identity is derived from it.
	f.store.Set(pair)

	claims, err := token.Decode(pair.AccessToken)
	if err != nil {
		// The service issued a token we cannot read. Session stays
		// unauthenticated; the stored pair will fail bootstrap the same way.
		f.fail("login", err)
		return err
	}
	f.sess.SetIdentity(claims.Identity())
	f.nav.GoTo(routes.Home)
	return nil
}

// Signup creates the account and sends the user to the login screen with a
// confirmation naming the created user.
func (f *Flows) Signup(ctx context.Context, form model.SignupForm) error {
	profile, err := f.gw.CreateAccount(ctx, form)
	if err != nil {
		f.fail("signup", err)
		return err
	}
	f.notify.Show(model.Notification{
		Open:    true,
		Title:   titleCreated,
		Content: fmt.Sprintf("User %s %s has been created successfully", profile.FirstName, profile.LastName),
	})
	f.nav.GoTo(routes.Login)
	return nil
}

// RetrievePassword asks the service to mail a one-time reset code. Both
// outcomes produce the success notification and the same navigation: the
// failure path must not reveal whether the account exists. Only the
// validity-window clause is omitted on failure. The error is swallowed for
// the same reason.
func (f *Flows) RetrievePassword(ctx context.Context, email string) {
	err := f.gw.RequestPasswordReset(ctx, email)

	content := retrieveSentContent
	if err == nil {
		content += retrieveValidityClause
	} else {
		f.log.Debug("password reset request failed", zap.Error(err))
	}
	f.notify.Show(model.Notification{Open: true, Title: titleSuccess, Content: content})
	f.nav.GoTo(routes.Login)
}

// ChangePassword redeems the mailed code against the reset ticket taken from
// the navigation context and sends the user back to login.
func (f *Flows) ChangePassword(ctx context.Context, form model.ChangeForm, ticket string) error {
	if err := f.gw.ConfirmPasswordReset(ctx, form, ticket); err != nil {
		f.fail("change-password", err)
		return err
	}
	f.notify.Show(model.Notification{Open: true, Title: titleSuccess, Content: passwordChangedContent})
	f.nav.GoTo(routes.Login)
	return nil
}

// Refresh exchanges a refresh token for a new pair and hands it back to the
// caller. The caller owns the side effects: the bootstrapper stores the pair
// under its sequence guard, and any action discovering mid-flight expiry
// decides for itself whether to force re-login.
func (f *Flows) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return f.gw.RefreshTokens(ctx, refreshToken)
}

// Logout clears the cached pair and the identity, then navigates to login.
// Purely local; the refresh token is simply abandoned.
func (f *Flows) Logout() {
	f.store.Clear()
	f.sess.Clear()
	f.nav.GoTo(routes.Login)
}

// fail normalizes a gateway rejection into the user-facing notification.
// Only the detail field is surfaced; transport errors and contract
// violations render the fallback detail.
func (f *Flows) fail(op string, err error) {
	detail := gateway.FallbackDetail
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Detail != "" {
		detail = gwErr.Detail
	}
	f.log.Warn("workflow failed", zap.String("op", op), zap.Error(err))
	f.notify.Show(model.Notification{Open: true, Title: titleError, Content: detail})
}
