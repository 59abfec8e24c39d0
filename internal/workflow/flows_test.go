package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ident-cli/internal/gateway"
	"github.com/and161185/ident-cli/internal/model"
	"github.com/and161185/ident-cli/internal/routes"
	"github.com/and161185/ident-cli/internal/session"
	"github.com/and161185/ident-cli/internal/store"
)

type fakeGateway struct {
	issuePair model.TokenPair
	issueErr  error
	lastLogin model.LoginForm

	profile   model.Profile
	createErr error

	resetErr  error
	lastEmail string

	confirmErr error
	lastChange model.ChangeForm
	lastTicket string

	refreshPair model.TokenPair
	refreshErr  error
	lastRefresh string
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) IssueTokens(_ context.Context, form model.LoginForm) (model.TokenPair, error) {
	f.lastLogin = form
	return f.issuePair, f.issueErr
}
func (f *fakeGateway) RefreshTokens(_ context.Context, refreshToken string) (model.TokenPair, error) {
	f.lastRefresh = refreshToken
	return f.refreshPair, f.refreshErr
}
func (f *fakeGateway) CreateAccount(_ context.Context, form model.SignupForm) (model.Profile, error) {
	return f.profile, f.createErr
}
func (f *fakeGateway) RequestPasswordReset(_ context.Context, email string) error {
	f.lastEmail = email
	return f.resetErr
}
func (f *fakeGateway) ConfirmPasswordReset(_ context.Context, form model.ChangeForm, ticket string) error {
	f.lastChange = form
	f.lastTicket = ticket
	return f.confirmErr
}

type recNav struct{ paths []string }

func (n *recNav) GoTo(path string) { n.paths = append(n.paths, path) }

type recNotify struct{ notes []model.Notification }

func (n *recNotify) Show(note model.Notification) { n.notes = append(n.notes, note) }

func mint(t *testing.T, identity map[string]any) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	for k, v := range identity {
		claims[k] = v
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return raw
}

func newFlows(gw gateway.Gateway) (*Flows, *store.MemStore, *session.Session, *recNav, *recNotify) {
	st := store.NewMemStore()
	sess := session.New()
	nav := &recNav{}
	notify := &recNotify{}
	return New(gw, st, sess, nav, notify, nil), st, sess, nav, notify
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	pair := model.TokenPair{
		AccessToken: mint(t, map[string]any{
			"first_name": "John", "last_name": "Doe",
			"email": "john@example.com", "username": "johndoe",
		}),
		RefreshToken: "refresh",
	}
	gw := &fakeGateway{issuePair: pair}
	f, st, sess, nav, notify := newFlows(gw)

	form := model.LoginForm{Email: "john@example.com", Password: "secret"}
	if err := f.Login(context.Background(), form); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if gw.lastLogin != form {
		t.Fatalf("gateway saw %+v", gw.lastLogin)
	}
	if got, _, ok := st.Get(); !ok || got != pair {
		t.Fatalf("store holds %+v, want issued pair", got)
	}
	want := model.Identity{FirstName: "John", LastName: "Doe", Email: "john@example.com", Username: "johndoe"}
	if id, ok := sess.Identity(); !ok || id != want {
		t.Fatalf("identity = %+v ok=%v", id, ok)
	}
	if len(nav.paths) != 1 || nav.paths[0] != routes.Home {
		t.Fatalf("nav = %v, want [%s]", nav.paths, routes.Home)
	}
	if len(notify.notes) != 0 {
		t.Fatalf("unexpected notifications: %+v", notify.notes)
	}
}

func TestLogin_FailureShowsDetailAndStaysPut(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{issueErr: &gateway.Error{Status: 401, Detail: "Invalid credentials"}}
	f, st, sess, nav, notify := newFlows(gw)

	if err := f.Login(context.Background(), model.LoginForm{}); err == nil {
		t.Fatalf("want error")
	}

	if len(nav.paths) != 0 {
		t.Fatalf("must not navigate on failure, got %v", nav.paths)
	}
	if _, _, ok := st.Get(); ok {
		t.Fatalf("store must stay empty")
	}
	if _, ok := sess.Identity(); ok {
		t.Fatalf("identity must stay null")
	}
	if len(notify.notes) != 1 {
		t.Fatalf("notifications: %+v", notify.notes)
	}
	n := notify.notes[0]
	if !n.Open || n.Title != titleError || n.Content != "Invalid credentials" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestLogin_TransportErrorRendersFallbackDetail(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{issueErr: errors.New("connection refused")}
	f, _, _, _, notify := newFlows(gw)

	_ = f.Login(context.Background(), model.LoginForm{})

	if len(notify.notes) != 1 || notify.notes[0].Content != gateway.FallbackDetail {
		t.Fatalf("notifications: %+v", notify.notes)
	}
}

func TestSignup_SuccessNamesCreatedUser(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{profile: model.Profile{FirstName: "John", LastName: "Doe", Email: "john@example.com"}}
	f, _, _, nav, notify := newFlows(gw)

	if err := f.Signup(context.Background(), model.SignupForm{FirstName: "John", LastName: "Doe"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if len(notify.notes) != 1 {
		t.Fatalf("notifications: %+v", notify.notes)
	}
	n := notify.notes[0]
	if n.Title != titleCreated || n.Content != "User John Doe has been created successfully" {
		t.Fatalf("notification = %+v", n)
	}
	if len(nav.paths) != 1 || nav.paths[0] != routes.Login {
		t.Fatalf("nav = %v", nav.paths)
	}
}

func TestSignup_FailureShowsDetail(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{createErr: &gateway.Error{Status: 409, Detail: "Email already exists"}}
	f, _, _, nav, notify := newFlows(gw)

	if err := f.Signup(context.Background(), model.SignupForm{}); err == nil {
		t.Fatalf("want error")
	}
	if len(nav.paths) != 0 {
		t.Fatalf("nav = %v", nav.paths)
	}
	n := notify.notes[0]
	if n.Title != titleError || n.Content != "Email already exists" {
		t.Fatalf("notification = %+v", n)
	}
}

// Success and failure must be indistinguishable apart from the validity
// clause: same title, same navigation, never an error title. This is an
// enumeration countermeasure, not a bug.
func TestRetrievePassword_FailureLooksLikeSuccess(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, resetErr error) (model.Notification, []string) {
		gw := &fakeGateway{resetErr: resetErr}
		f, _, _, nav, notify := newFlows(gw)
		f.RetrievePassword(context.Background(), "probe@example.com")
		if gw.lastEmail != "probe@example.com" {
			t.Fatalf("gateway saw %q", gw.lastEmail)
		}
		if len(notify.notes) != 1 {
			t.Fatalf("notifications: %+v", notify.notes)
		}
		return notify.notes[0], nav.paths
	}

	okNote, okNav := run(t, nil)
	failNote, failNav := run(t, &gateway.Error{Status: 404, Detail: "account not found"})

	if okNote.Title != titleSuccess || failNote.Title != titleSuccess {
		t.Fatalf("titles: %q vs %q", okNote.Title, failNote.Title)
	}
	if !okNote.Open || !failNote.Open {
		t.Fatalf("both notifications must be open")
	}
	if len(okNav) != 1 || len(failNav) != 1 || okNav[0] != routes.Login || failNav[0] != routes.Login {
		t.Fatalf("nav: %v vs %v", okNav, failNav)
	}
	if !strings.HasPrefix(okNote.Content, failNote.Content) {
		t.Fatalf("failure content may differ only by omission: %q vs %q", okNote.Content, failNote.Content)
	}
	if strings.Contains(failNote.Content, "account not found") {
		t.Fatalf("service detail leaked: %q", failNote.Content)
	}
}

func TestChangePassword_Success(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{}
	f, _, _, nav, notify := newFlows(gw)

	form := model.ChangeForm{Code: "123456", Password: "new", PasswordRepeat: "new"}
	if err := f.ChangePassword(context.Background(), form, "ticket-123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if gw.lastChange != form || gw.lastTicket != "ticket-123" {
		t.Fatalf("gateway saw %+v / %q", gw.lastChange, gw.lastTicket)
	}
	n := notify.notes[0]
	if n.Title != titleSuccess || n.Content != passwordChangedContent {
		t.Fatalf("notification = %+v", n)
	}
	if len(nav.paths) != 1 || nav.paths[0] != routes.Login {
		t.Fatalf("nav = %v", nav.paths)
	}
}

func TestChangePassword_FailureShowsDetailNoNav(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{confirmErr: &gateway.Error{Status: 400, Detail: "Invalid code or expired link"}}
	f, _, _, nav, notify := newFlows(gw)

	if err := f.ChangePassword(context.Background(), model.ChangeForm{}, "t"); err == nil {
		t.Fatalf("want error")
	}
	if len(nav.paths) != 0 {
		t.Fatalf("nav = %v", nav.paths)
	}
	n := notify.notes[0]
	if n.Title != titleError || n.Content != "Invalid code or expired link" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestRefresh_Passthrough(t *testing.T) {
	t.Parallel()
	pair := model.TokenPair{AccessToken: "a", RefreshToken: "r"}
	gw := &fakeGateway{refreshPair: pair}
	f, _, _, _, _ := newFlows(gw)

	got, err := f.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got != pair || gw.lastRefresh != "old-refresh" {
		t.Fatalf("got %+v, lastRefresh %q", got, gw.lastRefresh)
	}

	gw.refreshErr = errors.New("revoked")
	if _, err := f.Refresh(context.Background(), "old-refresh"); err == nil {
		t.Fatalf("want propagated error")
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	t.Parallel()
	f, st, sess, nav, _ := newFlows(&fakeGateway{})
	st.Set(model.TokenPair{AccessToken: "a", RefreshToken: "r"})
	sess.SetIdentity(model.Identity{Username: "johndoe"})

	f.Logout()

	if _, _, ok := st.Get(); ok {
		t.Fatalf("store must be cleared")
	}
	if _, ok := sess.Identity(); ok {
		t.Fatalf("identity must be cleared")
	}
	if len(nav.paths) != 1 || nav.paths[0] != routes.Login {
		t.Fatalf("nav = %v", nav.paths)
	}
}
