// Command identc is a CLI client for the identity service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ident-cli/internal/gateway/httpapi"
	"github.com/and161185/ident-cli/internal/model"
	"github.com/and161185/ident-cli/internal/session"
	"github.com/and161185/ident-cli/internal/store"
	"github.com/and161185/ident-cli/internal/workflow"
)

// ---- config dir ----

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ident-cli")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ident-cli")
}

// ---- presentation collaborators ----

// termNav renders navigation targets as terminal output; the CLI has no
// router, so "navigating" means telling the user which screen comes next.
type termNav struct{}

func (termNav) GoTo(path string) {
	fmt.Printf("-> %s\n", path)
}

// termNotify renders modal notifications as terminal output.
type termNotify struct{}

func (termNotify) Show(n model.Notification) {
	if !n.Open {
		return
	}
	fmt.Printf("%s: %s\n", n.Title, n.Content)
}

func usage() {
	fmt.Fprintf(os.Stderr, `identc CLI
Usage:
  identc -addr URL [-cacert file | -insecure] <cmd> [args]

Commands:
  version
  login     -email <email> -password <pw>            (saves token pair)
  signup    -first <name> -last <name> -email <email> -password <pw> -password-repeat <pw>
  retrieve  -email <email>                           (mails a reset code)
  change    -ticket <ticket> -code <code> -password <pw> -password-repeat <pw>
  whoami                                             (resumes the session)
  logout
`)
	os.Exit(2)
}

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and wires the session core together.
func main() {
	// global flags
	addr := flag.String("addr", "https://localhost:8443", "identity service base URL")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	logger := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			fail(err)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	if cmd == "version" {
		fmt.Printf("identc %s (%s)\n", version, buildDate)
		return
	}

	gw, err := httpapi.New(httpapi.Config{
		BaseURL:  *addr,
		Timeout:  *timeout,
		CACert:   *caPath,
		Insecure: *insecure,
	}, logger)
	if err != nil {
		fail(err)
	}

	st := store.NewFileStore(cfgDir(), logger)
	sess := session.New()
	flows := workflow.New(gw, st, sess, termNav{}, termNotify{}, logger)
	boot := session.NewBootstrapper(st, gw, sess, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd {

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}
		if err := flows.Login(ctx, model.LoginForm{Email: *email, Password: *password}); err != nil {
			os.Exit(1) // the workflow already reported the failure
		}
		if id, ok := sess.Identity(); ok {
			fmt.Printf("signed in as %s %s <%s>\n", id.FirstName, id.LastName, id.Email)
		}

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		repeat := fs.String("password-repeat", "", "password confirmation")
		_ = fs.Parse(flag.Args()[1:])
		if *first == "" || *last == "" || *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -first -last -email -password")
			os.Exit(1)
		}
		form := model.SignupForm{
			FirstName:      *first,
			LastName:       *last,
			Email:          *email,
			Password:       *password,
			PasswordRepeat: *repeat,
		}
		if err := flows.Signup(ctx, form); err != nil {
			os.Exit(1)
		}

	case "retrieve":
		fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" {
			fmt.Fprintln(os.Stderr, "need -email")
			os.Exit(1)
		}
		flows.RetrievePassword(ctx, *email)

	case "change":
		fs := flag.NewFlagSet("change", flag.ExitOnError)
		ticket := fs.String("ticket", "", "reset ticket from the emailed link")
		code := fs.String("code", "", "one-time code")
		password := fs.String("password", "", "new password")
		repeat := fs.String("password-repeat", "", "password confirmation")
		_ = fs.Parse(flag.Args()[1:])
		if *ticket == "" || *code == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -ticket -code -password")
			os.Exit(1)
		}
		form := model.ChangeForm{Code: *code, Password: *password, PasswordRepeat: *repeat}
		if err := flows.ChangePassword(ctx, form, *ticket); err != nil {
			os.Exit(1)
		}

	case "whoami":
		res := boot.Run(ctx)
		switch res.State {
		case session.StateAuthenticated:
			id := res.Identity
			fmt.Printf("%s %s <%s> (%s)\n", id.FirstName, id.LastName, id.Email, id.Username)
		case session.StateSuperseded:
			// A concurrent login won; report whatever it established.
			if id, ok := sess.Identity(); ok {
				fmt.Printf("%s %s <%s> (%s)\n", id.FirstName, id.LastName, id.Email, id.Username)
				return
			}
			fmt.Println("not signed in")
			os.Exit(1)
		default:
			termNav{}.GoTo(res.Redirect)
			os.Exit(1)
		}

	case "logout":
		flows.Logout()

	default:
		usage()
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
