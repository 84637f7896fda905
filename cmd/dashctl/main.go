// dashctl is a terminal client for the dashboard API built on the same
// session, cache, and query core the dashboard uses.
//
// Usage:
//
//	dashctl login --email admin@example.com --password secret
//	dashctl me
//	dashctl transactions --status Pending --search acme --page 2
//	dashctl presets list
//	dashctl presets save "Pending review"
//	dashctl presets apply <id>
//	dashctl presets rename <id> <new name>
//	dashctl presets delete <id>
//	dashctl audit --pages 3
//	dashctl logout
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"txdash/internal/apiclient"
	auditdomain "txdash/internal/audit/domain"
	"txdash/internal/clock"
	"txdash/internal/config"
	"txdash/internal/filter"
	"txdash/internal/preset"
	"txdash/internal/query"
	"txdash/internal/session"
	txdomain "txdash/internal/transaction/domain"
)

var (
	flagEmail    = pflag.String("email", "", "login email")
	flagPassword = pflag.String("password", "", "login password")

	flagSearch = pflag.String("search", "", "search user name or transaction id")
	flagStatus = pflag.String("status", "", "comma-separated statuses (Pending,Completed,Failed)")
	flagFrom   = pflag.String("from", "", "date range start (YYYY-MM-DD)")
	flagTo     = pflag.String("to", "", "date range end (YYYY-MM-DD)")
	flagMin    = pflag.String("min", "", "minimum amount")
	flagMax    = pflag.String("max", "", "maximum amount")

	flagSort  = pflag.String("sort", "date", "sort field (transactionId, userName, amount, date)")
	flagDir   = pflag.String("dir", "desc", "sort direction (asc, desc)")
	flagPage  = pflag.Int("page", 1, "page number")
	flagLimit = pflag.Int("limit", 20, "page size")
	flagPages = pflag.Int("pages", 1, "audit: number of pages to accumulate")
)

// app wires the client core together the way the dashboard does:
// one event channel, one session manager, one API client.
type app struct {
	manager *session.Manager
	client  *apiclient.Client
}

// lateTokens breaks the construction cycle between the client (which
// reads tokens) and the manager (which verifies tokens through the
// client).
type lateTokens struct {
	m *session.Manager
}

func (l *lateTokens) Snapshot() session.Snapshot {
	if l.m == nil {
		return session.Snapshot{}
	}
	return l.m.Snapshot()
}

func newApp(cfg *config.Config) *app {
	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("home dir: %v", err)
		}
		tokenFile = filepath.Join(home, ".txdash", "token")
	}

	events := session.NewEventChannel()
	tokens := &lateTokens{}
	client := apiclient.New(cfg.APIBaseURL, tokens, events)
	manager := session.NewManager(clock.Real(), session.NewFileTokenStore(tokenFile), events, client)
	tokens.m = manager
	return &app{manager: manager, client: client}
}

func main() {
	pflag.Parse()
	args := pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	a := newApp(cfg)
	defer a.manager.Close()
	ctx := context.Background()

	if args[0] != "login" {
		a.manager.Bootstrap(ctx)
		if msg := a.manager.Snapshot().SessionMessage; msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			a.manager.ClearSessionMessage()
		}
	}

	switch args[0] {
	case "login":
		a.login(ctx)
	case "me":
		a.me()
	case "logout":
		a.manager.Logout("")
		fmt.Println("Logged out.")
	case "transactions":
		a.transactions(ctx)
	case "presets":
		a.presets(ctx, args[1:])
	case "audit":
		a.audit(ctx)
	default:
		log.Fatalf("unknown command %q", args[0])
	}
}

func (a *app) login(ctx context.Context) {
	if *flagEmail == "" || *flagPassword == "" {
		log.Fatal("login requires --email and --password")
	}
	res, err := a.client.Login(ctx, *flagEmail, *flagPassword)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	if err := a.manager.Login(res.Token, &res.User); err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", res.User.Name, res.User.Role)
}

func (a *app) me() {
	snap := a.manager.Snapshot()
	if snap.State != session.StateAuthenticated {
		log.Fatal("not logged in")
	}
	fmt.Printf("%s <%s> role=%s\n", snap.User.Name, snap.User.Email, snap.User.Role)
}

// liveFilters builds the filter model from flags through the same
// parse/validate path the dashboard uses for its URL.
func liveFilters() filter.Model {
	params := url.Values{}
	set := func(k, v string) {
		if v != "" {
			params.Set(k, v)
		}
	}
	set("search", *flagSearch)
	set("status", *flagStatus)
	set("from", *flagFrom)
	set("to", *flagTo)
	set("min", *flagMin)
	set("max", *flagMax)

	model := filter.Parse(params)
	if result := filter.Validate(model, ""); !result.Valid {
		for field, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
		}
		os.Exit(2)
	}
	return model
}

func (a *app) transactions(ctx context.Context) {
	engine := query.NewEngine("transactions", query.ModeOffset,
		txdomain.Transaction.Key, a.client.TransactionFetcher())

	sort := query.Sort{Field: *flagSort, Dir: *flagDir}
	res, err := engine.Page(ctx, liveFilters(), sort, *flagLimit, *flagPage)
	if err != nil {
		log.Fatalf("transactions: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tSTATUS\tAMOUNT\tDATE")
	for _, t := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", t.TransactionID, t.UserName, t.Status, t.Amount, t.Date)
	}
	w.Flush()
	fmt.Printf("page %d/%d (%d total)\n", res.Meta.Page, res.Meta.Pages, res.Meta.Total)
}

func (a *app) presets(ctx context.Context, args []string) {
	r := preset.NewReconciler(a.client)
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		presets, err := r.List(ctx)
		if err != nil {
			log.Fatalf("presets: %v", err)
		}
		for _, p := range presets {
			fmt.Printf("%s\t%s\t%s\n", p.ID, p.Name, filter.Serialize(p.Filters).Encode())
		}
	case "save":
		if len(args) < 2 {
			log.Fatal("presets save requires a name")
		}
		created, err := r.Save(ctx, args[1], liveFilters())
		if err != nil {
			log.Fatalf("save preset: %v", err)
		}
		if created == nil {
			log.Fatal("active preset has unsaved changes; rename or update it first")
		}
		fmt.Printf("Saved %q (%s)\n", created.Name, created.ID)
	case "apply":
		if len(args) < 2 {
			log.Fatal("presets apply requires a preset id")
		}
		presets, err := r.List(ctx)
		if err != nil {
			log.Fatalf("presets: %v", err)
		}
		for _, p := range presets {
			if p.ID == args[1] {
				fmt.Println("?" + r.Apply(p).Encode())
				return
			}
		}
		log.Fatalf("no preset with id %s", args[1])
	case "rename":
		if len(args) < 3 {
			log.Fatal("presets rename requires an id and a new name")
		}
		if err := r.Rename(ctx, args[1], args[2]); err != nil {
			log.Fatalf("rename preset: %v", err)
		}
		fmt.Println("Renamed.")
	case "delete":
		if len(args) < 2 {
			log.Fatal("presets delete requires a preset id")
		}
		if err := r.Delete(ctx, args[1]); err != nil {
			log.Fatalf("delete preset: %v", err)
		}
		fmt.Println("Deleted.")
	default:
		log.Fatalf("unknown presets subcommand %q", sub)
	}
}

func (a *app) audit(ctx context.Context) {
	engine := query.NewEngine("audit", query.ModeInfinite,
		func(e auditdomain.Entry) string { return e.ID }, a.client.AuditFetcher())

	f := filter.Model{}
	sort := query.DefaultSort
	res, err := engine.Load(ctx, f, sort, *flagLimit)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	for p := 1; p < *flagPages && engine.HasMore(f, sort, *flagLimit); p++ {
		if res, err = engine.LoadMore(ctx, f, sort, *flagLimit); err != nil {
			log.Fatalf("audit: %v", err)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tROLE\tACTION\tENTITY")
	for _, e := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Actor, e.Role, e.Action, e.EntityID)
	}
	w.Flush()
	fmt.Printf("%s of %s entries loaded\n",
		strconv.Itoa(len(res.Data)), strconv.Itoa(res.Meta.Total))
}
