// Package routes lists the navigation targets used by the session core and
// the credential workflows.
package routes

const (
	Home             = "/home"
	Login            = "/login"
	Signup           = "/signup"
	RetrievePassword = "/password/retrieve"
	ChangePassword   = "/password/change/:ticket"
)
