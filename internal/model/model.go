// Package model defines domain entities shared by the session core and workflows.
package model

// TokenPair is the cached credential pair. Opaque to the store; only the token
// codec interprets contents. Always replaced as a whole, never field-by-field.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present. A pair missing either
// token is treated the same as no session at all.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Claims is the decoded payload of an access token. Derived, never persisted;
// recomputed from the raw token on every check.
type Claims struct {
	ExpiresAt int64 // unix seconds; required
	FirstName string
	LastName  string
	Email     string
	Username  string
}

// Identity projects the identity fields out of the claims.
func (c Claims) Identity() Identity {
	return Identity{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Username:  c.Username,
	}
}

// Identity is the current user as seen by the rest of the application.
type Identity struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
}

// Notification is the outcome of the most recent workflow call, rendered by
// the presentation layer (a modal in the original UI, a terminal line here).
type Notification struct {
	Open    bool
	Title   string
	Content string
}

// LoginForm carries user credentials for token issuance.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupForm carries the account creation profile.
type SignupForm struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

// Profile is the created-account echo returned by the identity service.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ChangeForm carries the mailed one-time code and the new password for a
// password change. The reset ticket travels separately (it comes from the
// navigation context, not from user input).
type ChangeForm struct {
	Code           string `json:"code"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}
