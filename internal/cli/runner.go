package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/idilsaglam/todolive/internal/config"
	"github.com/idilsaglam/todolive/internal/devserver"
	"github.com/idilsaglam/todolive/internal/model"
	"github.com/idilsaglam/todolive/internal/remote"
	"github.com/idilsaglam/todolive/internal/store/sqlstore"
	"github.com/idilsaglam/todolive/internal/tui"
	"github.com/idilsaglam/todolive/internal/ui"
)

const requestTimeout = 30 * time.Second

// Options tune output behavior from root flags.
type Options struct {
	Group    bool   // watch output grouped by pending/done
	Endpoint string // data service URL; wins over env and config file
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		return doList(opt)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(opt, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <id>")
			return 2
		}
		id, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return doToggle(opt, id)

	case "watch":
		return doWatch(opt)

	case "serve":
		return doServe(a)

	case "config":
		if len(a) == 0 {
			ui.Fail("usage: todo config <show|set-endpoint URL [WS_URL]|reset>")
			return 2
		}
		switch a[0] {
		case "show":
			return doConfigShow(opt)
		case "set-endpoint":
			if len(a) < 2 || len(a) > 3 {
				ui.Fail("usage: todo config set-endpoint URL [WS_URL]")
				return 2
			}
			ws := ""
			if len(a) == 3 {
				ws = a[2]
			}
			return doConfigSet(a[1], ws)
		case "reset":
			return doConfigReset()
		default:
			ui.Fail("usage: todo config <show|set-endpoint URL [WS_URL]|reset>")
			return 2
		}
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todo - a live todo list client

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ls                 Interactive list (default)
  add <title...>     Add a new item (title can be multiple words)
  done <id>          Toggle completion of the item with this id
  watch              Print the list every time the service pushes a change
  serve              Run the local development data service
  config <show|set-endpoint URL [WS_URL]|reset>   Data service endpoint

Flags:
  -endpoint URL      Data service URL (env %s, then ~/.todo/config.json)
  -theme NAME        classic | neon | mono
  -group             Group watch output by pending/done

Examples:
  todo serve -addr 127.0.0.1:8080 &
  todo -endpoint http://127.0.0.1:8080/v1/graphql add "Buy milk"
  todo ls
  todo done 2
`, config.EnvEndpoint)
}

// ---------------------------------------------------
// Data service subcommands
// ---------------------------------------------------

func connect(opt Options) (*remote.Client, int) {
	ep, err := config.Resolve(opt.Endpoint)
	if err != nil {
		ui.Fail("endpoint: " + err.Error())
		return nil, 2
	}
	glog.V(1).Infof("using endpoint %s (%s), live feed %s", ep.HTTP, ep.Source, ep.WS)
	return remote.Dial(ep.HTTP, ep.WS), 0
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func doList(opt Options) int {
	c, code := connect(opt)
	if c == nil {
		return code
	}
	if err := tui.Run(context.Background(), c); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doAdd(opt Options, title string) int {
	if strings.TrimSpace(title) == "" {
		ui.Fail("add: empty title")
		return 2
	}
	c, code := connect(opt)
	if c == nil {
		return code
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	it, err := c.AddTodo(ctx, title)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("added #%d", it.ID))
	return 0
}

func doToggle(opt Options, id int) int {
	c, code := connect(opt)
	if c == nil {
		return code
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	items, err := c.Todos(ctx)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	idx := indexOf(items, id)
	if idx < 0 {
		ui.Fail(fmt.Sprintf("no todo with id %d", id))
		ui.Hint("Hint: run `todo watch` or `todo ls` to see valid ids")
		return 2
	}
	ack, err := c.SetCompleted(ctx, id, !items[idx].Completed)
	if errors.Is(err, remote.ErrNotFound) {
		ui.Fail(fmt.Sprintf("todo %d was removed", id))
		return 2
	}
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if ack.Completed {
		ui.OK(fmt.Sprintf("#%d done", id))
	} else {
		ui.OK(fmt.Sprintf("#%d reopened", id))
	}
	return 0
}

func doWatch(opt Options) int {
	c, code := connect(opt)
	if c == nil {
		return code
	}
	ctx, cancel := signalContext()
	defer cancel()
	feed, err := c.Subscribe(ctx)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	for items := range feed {
		ui.Panel(snapshotLines(items, opt.Group, time.Now()))
	}
	if ctx.Err() != nil {
		return 0
	}
	ui.Fail("live feed closed")
	return 1
}

func doServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "address to listen on")
	dsn := fs.String("db", "", "sqlite database file (default: in memory)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ctx, cancel := signalContext()
	defer cancel()

	st, err := sqlstore.Open(ctx, *dsn)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer st.Close()

	ui.OK(fmt.Sprintf("serving http://%s%s (Ctrl-C to stop)", *addr, devserver.GraphQLPath))
	if err := devserver.New(st).ListenAndServe(ctx, *addr); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	return 0
}

// ---------------------------------------------------
// Config subcommands
// ---------------------------------------------------

func doConfigShow(opt Options) int {
	ep, err := config.Resolve(opt.Endpoint)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	fmt.Printf("endpoint: %s\n", ep.HTTP)
	fmt.Printf("live feed: %s\n", ep.WS)
	fmt.Printf("source: %s\n", ep.Source)
	if !ep.SavedAt.IsZero() {
		fmt.Printf("saved: %s\n", ep.SavedAt.UTC().Format(time.RFC3339))
	}
	fmt.Println("env override: " + config.EnvEndpoint)
	return 0
}

func doConfigSet(httpURL, wsURL string) int {
	if err := config.Save(httpURL, wsURL); err != nil {
		ui.Fail("save endpoint: " + err.Error())
		return 1
	}
	ui.OK("endpoint saved")
	return 0
}

func doConfigReset() int {
	if err := config.Reset(); err != nil {
		ui.Fail("reset: " + err.Error())
		return 1
	}
	ui.OK("endpoint reset to default")
	return 0
}

// ---------------------------------------------------
// helpers
// ---------------------------------------------------

func indexOf(items []model.Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func snapshotLines(items []model.Item, group bool, at time.Time) []string {
	t := ui.Current()
	done, pending := model.Stats(items)
	lines := []string{
		fmt.Sprintf("%s  %s", t.Title.Render("Todos"), t.Muted.Render(at.Format("15:04:05"))),
		fmt.Sprintf("%s %d  %s %d  %s",
			t.Success.Render(t.SymDone), done,
			t.Pending.Render(t.SymPending), pending,
			ui.ProgressBar(done, len(items), 20)),
	}
	if len(items) == 0 {
		return append(lines, t.Muted.Render("No todos yet"))
	}
	if !group {
		for _, it := range items {
			lines = append(lines, itemLine(it))
		}
		return lines
	}
	lines = append(lines, t.Pending.Render("Pending"))
	for _, it := range items {
		if !it.Completed {
			lines = append(lines, itemLine(it))
		}
	}
	lines = append(lines, t.Success.Render("Done"))
	for _, it := range items {
		if it.Completed {
			lines = append(lines, itemLine(it))
		}
	}
	return lines
}

func itemLine(it model.Item) string {
	t := ui.Current()
	if it.Completed {
		return fmt.Sprintf("%s %s %s", t.Success.Render(t.BoxChecked), t.Done.Render(it.Title), t.Muted.Render(fmt.Sprintf("#%d", it.ID)))
	}
	return fmt.Sprintf("%s %s %s", t.Muted.Render(t.BoxUnchecked), it.Title, t.Muted.Render(fmt.Sprintf("#%d", it.ID)))
}
