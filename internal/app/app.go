// Package app wires the client together and drives it from the command
// line. Every command resolves through the route table, so access rules
// apply uniformly no matter how a screen is reached.
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"splitmate/internal/api"
	"splitmate/internal/config"
	"splitmate/internal/credential"
	"splitmate/internal/health"
	"splitmate/internal/metrics"
	"splitmate/internal/models"
	"splitmate/internal/realtime"
	"splitmate/internal/router"
	"splitmate/internal/session"
	"splitmate/internal/storage/sqlite"
)

// viewArgs carries per-command parameters into the views. Commands stage
// them before navigating; views read them.
type viewArgs struct {
	email    string
	password string
	username string
	token    string

	groupID     string
	name        string
	description string
	userID      string
	accept      bool
	query       string

	content string

	amount    float64
	splitType string
	splitWith string
	amounts   string
	percents  string
	note      string

	paidTo    string
	expenseID string

	notificationID string
	markAll        bool
	remove         bool

	page  int
	limit int
}

// App owns the long-lived client components.
type App struct {
	cfg      *config.Config
	out      io.Writer
	store    *sqlite.SQLiteStore
	sessions session.Store
	client   *api.Client
	router   *router.Router
	realtime *realtime.Manager
	metrics  *metrics.Metrics
	monitor  *health.Monitor

	args viewArgs
}

// New builds the app and opens its state database. Close releases both
// the database and any live realtime connection.
func New(cfg *config.Config, out io.Writer) (*App, error) {
	store, err := sqlite.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	codec, err := credential.NewCodec(cfg.EncryptionKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build credential codec: %w", err)
	}

	a := &App{
		cfg:      cfg,
		out:      out,
		store:    store,
		sessions: session.NewStore(store, codec, cfg.TokenKey, cfg.UserKey),
		metrics:  metrics.New(),
	}

	a.client, err = api.New(api.Options{
		BaseURL:        cfg.APIBaseURL,
		Sessions:       a.sessions,
		OnUnauthorized: a.handleUnauthorized,
		Metrics:        a.metrics,
		UseH2C:         cfg.UseH2C,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build API client: %w", err)
	}

	a.realtime = realtime.NewManager(cfg.SocketURL, a.sessions, a.metrics)
	a.monitor = health.NewMonitor(a.client, health.DefaultInterval, func(s health.Status) {
		fmt.Fprintf(a.out, "backend is %s\n", s)
	})

	a.router = router.New(a.sessions)
	a.registerRoutes()
	return a, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	a.realtime.Close()
	return a.store.Close()
}

// handleUnauthorized runs after the pipeline has already cleared the
// rejected session. It lands the user on the login view; the credentials
// staged for the failed command are wiped so login renders its prompt
// instead of retrying them.
func (a *App) handleUnauthorized() {
	fmt.Fprintln(a.out, "Your session has expired. Please log in again.")
	a.args.email = ""
	a.args.password = ""
	if _, err := a.router.Navigate(context.Background(), router.LoginRoute); err != nil {
		fmt.Fprintf(a.out, "failed to open login: %v\n", err)
	}
}

func (a *App) registerRoutes() {
	a.router.Handle("landing", router.Public, a.renderLanding)
	a.router.Handle(router.LoginRoute, router.PublicOnly, a.renderLogin)
	a.router.Handle("register", router.PublicOnly, a.renderRegister)
	a.router.Handle("verify-email", router.PublicOnly, a.renderVerifyEmail)
	a.router.Handle(router.LandingRoute, router.Protected, a.renderDashboard)
	a.router.Handle("account", router.Protected, a.renderAccount)
	a.router.Handle("groups", router.Protected, a.renderGroups)
	a.router.Handle("group", router.Protected, a.renderGroup)
	a.router.Handle("invite", router.Protected, a.renderInvite)
	a.router.Handle("respond", router.Protected, a.renderRespond)
	a.router.Handle("search", router.Protected, a.renderSearch)
	a.router.Handle("expense", router.Protected, a.renderExpense)
	a.router.Handle("pay", router.Protected, a.renderPay)
	a.router.Handle("history", router.Protected, a.renderHistory)
	a.router.Handle("notifications", router.Protected, a.renderNotifications)
	a.router.Handle("chat", router.Protected, a.renderChat)
	a.router.Handle("logout", router.Protected, a.renderLogout)
}

// Run parses one command and navigates to its route.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.navigate(ctx, "landing")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.StringVar(&a.args.email, "email", "", "account email")
		fs.StringVar(&a.args.password, "password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, router.LoginRoute)

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		fs.StringVar(&a.args.username, "username", "", "display name")
		fs.StringVar(&a.args.email, "email", "", "account email")
		fs.StringVar(&a.args.password, "password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "register")

	case "verify-email":
		fs := flag.NewFlagSet("verify-email", flag.ContinueOnError)
		fs.StringVar(&a.args.token, "token", "", "token from the verification email")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "verify-email")

	case "logout":
		return a.navigate(ctx, "logout")

	case "whoami":
		return a.navigate(ctx, "account")

	case "dashboard":
		return a.navigate(ctx, router.LandingRoute)

	case "groups":
		fs := flag.NewFlagSet("groups", flag.ContinueOnError)
		a.pageFlags(fs)
		fs.StringVar(&a.args.name, "create", "", "create a group with this name")
		fs.StringVar(&a.args.description, "description", "", "description for the new group")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "groups")

	case "group":
		fs := flag.NewFlagSet("group", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "id", "", "group ID")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if a.args.groupID == "" && fs.NArg() > 0 {
			a.args.groupID = fs.Arg(0)
		}
		return a.navigate(ctx, "group")

	case "invite":
		fs := flag.NewFlagSet("invite", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "group", "", "group ID")
		fs.StringVar(&a.args.userID, "user", "", "user ID to invite")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "invite")

	case "respond":
		fs := flag.NewFlagSet("respond", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "group", "", "group ID of the invitation")
		fs.BoolVar(&a.args.accept, "accept", false, "accept instead of decline")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "respond")

	case "search":
		fs := flag.NewFlagSet("search", flag.ContinueOnError)
		fs.StringVar(&a.args.query, "query", "", "name or email fragment")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if a.args.query == "" && fs.NArg() > 0 {
			a.args.query = strings.Join(fs.Args(), " ")
		}
		return a.navigate(ctx, "search")

	case "expense":
		fs := flag.NewFlagSet("expense", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "group", "", "group ID")
		fs.StringVar(&a.args.description, "description", "", "what the expense was for")
		fs.Float64Var(&a.args.amount, "amount", 0, "total amount")
		fs.StringVar(&a.args.splitType, "split", string(models.SplitEqual), "EQUAL, EXACT or PERCENTAGE")
		fs.StringVar(&a.args.splitWith, "with", "", "comma-separated member user IDs")
		fs.StringVar(&a.args.amounts, "amounts", "", "user=amount pairs for EXACT splits")
		fs.StringVar(&a.args.percents, "percents", "", "user=percent pairs for PERCENTAGE splits")
		fs.StringVar(&a.args.note, "note", "", "optional note")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "expense")

	case "pay":
		fs := flag.NewFlagSet("pay", flag.ContinueOnError)
		fs.StringVar(&a.args.paidTo, "to", "", "user ID being paid")
		fs.Float64Var(&a.args.amount, "amount", 0, "payment amount")
		fs.StringVar(&a.args.groupID, "group", "", "group ID")
		fs.StringVar(&a.args.expenseID, "expense", "", "optional expense being settled")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "pay")

	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		a.pageFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "history")

	case "notifications":
		fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
		a.pageFlags(fs)
		fs.StringVar(&a.args.notificationID, "read", "", "mark one notification read")
		fs.BoolVar(&a.args.markAll, "read-all", false, "mark every notification read")
		fs.BoolVar(&a.args.remove, "delete", false, "delete instead of marking read")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "notifications")

	case "chat":
		fs := flag.NewFlagSet("chat", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "group", "", "group ID")
		fs.StringVar(&a.args.content, "send", "", "message to send")
		a.pageFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.navigate(ctx, "chat")

	case "status":
		fmt.Fprintf(a.out, "backend is %s\n", a.monitor.Check(ctx))
		return nil

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		fs.StringVar(&a.args.groupID, "group", "", "group ID to watch")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if a.args.groupID == "" && fs.NArg() > 0 {
			a.args.groupID = fs.Arg(0)
		}
		return a.Watch(ctx, a.args.groupID)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *App) pageFlags(fs *flag.FlagSet) {
	fs.IntVar(&a.args.page, "page", 0, "page number")
	fs.IntVar(&a.args.limit, "limit", 0, "items per page")
}

// navigate resolves the route through the access rules and reports a
// redirect when one happened.
func (a *App) navigate(ctx context.Context, name string) error {
	rendered, err := a.router.Navigate(ctx, name)
	if err != nil {
		return err
	}
	if rendered != name {
		fmt.Fprintf(a.out, "(redirected to %s)\n", rendered)
	}
	return nil
}

func (a *App) listOptions() api.ListOptions {
	return api.ListOptions{Page: a.args.page, Limit: a.args.limit}
}
