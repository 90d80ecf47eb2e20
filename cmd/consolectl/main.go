// consolectl is a terminal stand-in for the console's browser client. It
// keeps the auth token and user record in a local storage file, asks the
// server to log in and out, and runs navigations through the route guard.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/minics/console/internal/client"
	"github.com/minics/console/internal/core/guard"
	"github.com/minics/console/internal/core/permission"
	"github.com/minics/console/internal/core/session"
	"github.com/minics/console/internal/infrastructure/routetable"
	"github.com/minics/console/internal/infrastructure/storage"
	"github.com/minics/console/pkg/logger"
)

const usage = `consolectl talks to the console API as an operator would.

Usage:
  consolectl [flags] <command> [args]

Commands:
  captcha                     fetch a login challenge
  login [--username u] [--password p] [--captcha-key k --captcha a]
                              log in; prompts for the captcha when needed
  logout                      end the session
  whoami                      refresh and print the stored user
  can menu|action|role <key>  check a grant against the stored user
  navigate [--remote] <path>...
                              run navigations through the route guard
  landing                     print the default landing page

Flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	sess   *session.Store
	client *client.Client
	nav    *guard.Navigator
	guard  *guard.Guard
	in     *bufio.Reader
	out    io.Writer
	log    zerolog.Logger
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var server, storagePath, routesFile, logLevel string

	flagSet := pflag.NewFlagSet("consolectl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&server, "server", envOr("CONSOLE_SERVER", "http://localhost:8080"), "console API base URL")
	flagSet.StringVar(&storagePath, "storage", defaultStoragePath(), "local storage file holding the session")
	flagSet.StringVar(&routesFile, "routes", "", "route table YAML (built-in table when empty)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}

	log := logger.Init(logger.Options{Level: logLevel, Pretty: true, Output: os.Stderr, Service: "consolectl"})
	ctx := context.Background()

	g, err := routetable.LoadOrDefault(routesFile)
	if err != nil {
		return err
	}

	a := &app{
		sess:  session.Open(ctx, storage.NewFile(storagePath), logger.Component("session")),
		guard: g,
		in:    bufio.NewReader(stdin),
		out:   stdout,
		log:   log,
	}
	a.nav = guard.NewNavigator(g, a.sess)
	a.client = client.New(server, a.sess, client.WithLogger(logger.Component("client")))
	a.client.OnUnauthorized = func(ctx context.Context) {
		d := a.nav.RedirectToLogin(ctx)
		fmt.Fprintf(a.out, "session expired, redirected to %s\n", d.Target)
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "captcha":
		return a.captcha(ctx)
	case "login":
		return a.login(ctx, cmdArgs)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "can":
		return a.can(cmdArgs)
	case "navigate":
		return a.navigate(ctx, cmdArgs)
	case "landing":
		return a.landing(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) captcha(ctx context.Context) error {
	ch, err := a.client.Captcha(ctx)
	if err != nil {
		return err
	}
	if !ch.Enabled {
		fmt.Fprintln(a.out, "captcha disabled")
		return nil
	}
	fmt.Fprintf(a.out, "key:      %s\nquestion: %s\n", ch.Key, ch.Question)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	var creds client.Credentials
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	fs.StringVarP(&creds.Username, "username", "u", "", "operator username")
	fs.StringVarP(&creds.Password, "password", "p", os.Getenv("CONSOLE_PASSWORD"), "password (default $CONSOLE_PASSWORD)")
	fs.StringVar(&creds.CaptchaKey, "captcha-key", "", "key of an already fetched captcha")
	fs.StringVar(&creds.Captcha, "captcha", "", "captcha answer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = a.prompt("username: "); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = a.prompt("password: "); err != nil {
			return err
		}
	}
	if creds.CaptchaKey == "" {
		ch, err := a.client.Captcha(ctx)
		if err != nil {
			return err
		}
		if ch.Enabled {
			creds.CaptchaKey = ch.Key
			if creds.Captcha, err = a.prompt(ch.Question + " "); err != nil {
				return err
			}
		}
	}

	user, err := a.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	a.log.Debug().Str("username", user.Username).Msg("logged in")

	d := a.nav.Navigate(ctx, a.guard.LoginPath())
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", user.Username, user.Role)
	fmt.Fprintf(a.out, "landing: %s\n", d.Target)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	fmt.Fprintln(a.out, "logged out")
	return err
}

func (a *app) whoami(ctx context.Context) error {
	if !a.sess.IsAuthenticated(ctx) {
		return errors.New("not logged in")
	}
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "username: %s\nrole:     %s\n", user.Username, user.Role)
	if user.Email != "" {
		fmt.Fprintf(a.out, "email:    %s\n", user.Email)
	}
	fmt.Fprintf(a.out, "menus:    %s\n", strings.Join(user.Permissions.Menus(), ", "))
	fmt.Fprintf(a.out, "actions:  %s\n", strings.Join(user.Permissions.Actions(), ", "))
	return nil
}

func (a *app) can(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: can menu|action|role <key>")
	}
	ev := permission.NewEvaluator(a.sess)
	var ok bool
	switch args[0] {
	case "menu":
		ok = ev.HasMenu(args[1])
	case "action":
		ok = ev.HasAction(args[1])
	case "role":
		ok = ev.HasRole(args[1])
	default:
		return fmt.Errorf("unknown grant kind %q", args[0])
	}
	fmt.Fprintln(a.out, ok)
	return nil
}

func (a *app) navigate(ctx context.Context, args []string) error {
	var remote bool
	fs := pflag.NewFlagSet("navigate", pflag.ContinueOnError)
	fs.BoolVar(&remote, "remote", false, "ask the server instead of the local route table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("usage: navigate [--remote] <path>...")
	}

	for _, p := range paths {
		if remote {
			d, err := a.client.Decide(ctx, p)
			if err != nil {
				return err
			}
			printDecision(a.out, p, d.Outcome, d.State, d.Target, d.Reason)
			continue
		}
		d := a.nav.Navigate(ctx, p)
		printDecision(a.out, p, d.Outcome.String(), d.State.String(), d.Target, d.Reason)
	}
	if !remote {
		fmt.Fprintf(a.out, "history: %s\n", strings.Join(a.nav.History(), " "))
	}
	return nil
}

func (a *app) landing(ctx context.Context) error {
	if !a.sess.IsAuthenticated(ctx) {
		return errors.New("not logged in")
	}
	p, ok := a.guard.Landing(ctx, a.sess)
	if !ok {
		return errors.New("no page is reachable for this session")
	}
	fmt.Fprintln(a.out, p)
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(label), err)
	}
	return strings.TrimSpace(line), nil
}

func printDecision(w io.Writer, path, outcome, state, target, reason string) {
	fmt.Fprintf(w, "%-24s %-10s %-24s -> %s", path, outcome, state, target)
	if reason != "" {
		fmt.Fprintf(w, " (%s)", reason)
	}
	fmt.Fprintln(w)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "consolectl-storage.json"
	}
	return filepath.Join(home, ".config", "consolectl", "storage.json")
}
