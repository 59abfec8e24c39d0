package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ident-cli/internal/gateway"
	"github.com/and161185/ident-cli/internal/model"
	"github.com/and161185/ident-cli/internal/routes"
	"github.com/and161185/ident-cli/internal/store"
	"github.com/and161185/ident-cli/internal/token"
)

// State is the terminal outcome of a bootstrap pass.
type State int

const (
	// StateAuthenticated means the identity is populated and no redirect
	// is needed.
	StateAuthenticated State = iota
	// StateRequireLogin means the cached credentials are unusable; the
	// identity is cleared and the caller must redirect to login.
	StateRequireLogin
	// StateSuperseded means a newer login or logout raced the refresh;
	// the refreshed pair was discarded and session state is untouched.
	StateSuperseded
)

// Reason records which branch of the state machine produced the outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoSession
	ReasonRefreshInvalid
	ReasonRefreshFailed
	ReasonSuperseded
)

func (r Reason) String() string {
	switch r {
	case ReasonNoSession:
		return "no-session"
	case ReasonRefreshInvalid:
		return "refresh-invalid"
	case ReasonRefreshFailed:
		return "refresh-failed"
	case ReasonSuperseded:
		return "superseded"
	default:
		return "none"
	}
}

// Result is what a bootstrap pass hands back to the caller.
type Result struct {
	State    State
	Identity model.Identity // populated only when State == StateAuthenticated
	Redirect string         // navigation target, "" when none
	Reason   Reason
}

// Bootstrapper resumes a session from the credential store. It runs once per
// protected navigation context: a single pass, never a polling loop, and at
// most one refresh call per pass with no retry.
type Bootstrapper struct {
	store store.Store
	gw    gateway.Gateway
	sess  *Session
	log   *zap.Logger
	now   func() time.Time
}

// NewBootstrapper constructs a Bootstrapper. A nil logger disables logging.
func NewBootstrapper(st store.Store, gw gateway.Gateway, sess *Session, log *zap.Logger) *Bootstrapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrapper{store: st, gw: gw, sess: sess, log: log, now: time.Now}
}

// Run decides whether the cached credential pair is usable, renewable, or
// dead, and either populates the session identity or asks for a redirect to
// login.
//
// The refresh token is the sole gate: it must decode and be unexpired before
// the access token is even inspected, because a valid access token paired
// with a dead refresh token still ends in an unrecoverable session the
// moment it expires.
func (b *Bootstrapper) Run(ctx context.Context) Result {
	pair, seq, ok := b.store.Get()
	if !ok {
		// Covers the empty store and corrupt/partial records alike.
		return b.requireLogin(ReasonNoSession, nil)
	}

	now := b.now()

	refreshClaims, err := token.Decode(pair.RefreshToken)
	if err != nil || token.Expired(refreshClaims, now) {
		return b.requireLogin(ReasonRefreshInvalid, err)
	}

	if accessClaims, err := token.Decode(pair.AccessToken); err == nil && !token.Expired(accessClaims, now) {
		// Zero gateway calls on this path.
		return b.authenticated(accessClaims)
	}

	// Access token expired or undecodable; spend the one refresh attempt.
	newPair, err := b.gw.RefreshTokens(ctx, pair.RefreshToken)
	if err != nil {
		// Terminal for this pass; the store is left for the next login
		// to overwrite, but the identity is guaranteed null.
		return b.requireLogin(ReasonRefreshFailed, err)
	}

	// Store the pair before deriving identity from it, and only if nothing
	// newer landed while the refresh was in flight.
	if _, applied := b.store.SetIf(newPair, seq); !applied {
		b.log.Info("bootstrap refresh superseded by a newer write")
		return Result{State: StateSuperseded, Reason: ReasonSuperseded}
	}

	accessClaims, err := token.Decode(newPair.AccessToken)
	if err != nil {
		b.log.Warn("refreshed access token undecodable", zap.Error(err))
		return b.requireLogin(ReasonRefreshFailed, err)
	}
	return b.authenticated(accessClaims)
}

func (b *Bootstrapper) authenticated(claims model.Claims) Result {
	id := claims.Identity()
	b.sess.SetIdentity(id)
	b.log.Debug("session resumed", zap.String("username", id.Username))
	return Result{State: StateAuthenticated, Identity: id}
}

func (b *Bootstrapper) requireLogin(reason Reason, err error) Result {
	b.sess.Clear()
	b.log.Info("bootstrap requires login",
		zap.Stringer("reason", reason),
		zap.Error(err),
	)
	return Result{State: StateRequireLogin, Redirect: routes.Login, Reason: reason}
}
