// Package dashboard is the line-oriented admin console: sign-in, summary
// stats and the paginated user table.
package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"kirshify/admin/internal/client"
	"kirshify/admin/internal/table"
)

var (
	ErrNotSignedIn    = errors.New("not signed in, use: login <email> <password>")
	ErrUnknownCommand = errors.New("unknown command, type help")
	ErrSessionExpired = errors.New("session expired, please log in again")
)

type Option func(*Console)

func WithPerPage(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Console) {
		c.log = log
	}
}

// Console is not safe for concurrent use; it is driven by one input stream.
type Console struct {
	api      *client.Client
	out      io.Writer
	log      zerolog.Logger
	perPage  int
	readFile func(string) ([]byte, error)

	user  *client.User
	table *table.Controller
}

func New(api *client.Client, out io.Writer, opts ...Option) *Console {
	c := &Console{
		api:      api,
		out:      out,
		log:      zerolog.Nop(),
		perPage:  table.DefaultPerPage,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run resumes an existing session if there is one, then executes commands
// until quit or end of input.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.endSession()

	if user, err := c.api.Me(ctx); err == nil {
		c.startSession(user)
		fmt.Fprintf(c.out, "Welcome back, %s\n", user.Name)
	} else if !client.IsUnauthorized(err) {
		c.log.Debug().Err(err).Msg("session check failed")
	}
	fmt.Fprintln(c.out, "Kirshify admin. Type help for commands.")

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		quit, err := c.Exec(ctx, scanner.Text())
		if err != nil {
			c.printError(err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		c.printHelp()
		return false, nil
	case "login":
		return false, c.login(ctx, args)
	case "logout":
		return false, c.logout(ctx)
	case "me":
		return false, c.me(ctx)
	}

	if c.user == nil {
		return false, ErrNotSignedIn
	}

	err := c.execSignedIn(ctx, cmd, args, line)
	if client.IsUnauthorized(err) {
		c.endSession()
		c.log.Debug().Err(err).Msg("session rejected")
		return false, ErrSessionExpired
	}
	return false, err
}

func (c *Console) execSignedIn(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "stats":
		return c.stats(ctx)
	case "users":
		return c.refresh(ctx, c.table.Refetch)
	case "search":
		text := strings.TrimSpace(line[strings.Index(strings.ToLower(line), "search")+len("search"):])
		return c.refresh(ctx, func(ctx context.Context) error { return c.table.SetSearch(ctx, text) })
	case "clear":
		return c.refresh(ctx, c.table.ClearSearch)
	case "page":
		if len(args) != 1 {
			return errors.New("usage: page <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("page must be a number, got %q", args[0])
		}
		return c.refresh(ctx, func(ctx context.Context) error { return c.table.SetPage(ctx, n) })
	case "next":
		return c.refresh(ctx, c.table.NextPage)
	case "prev":
		return c.refresh(ctx, c.table.PrevPage)
	case "select":
		if len(args) == 0 {
			return errors.New("usage: select <id> [id...]")
		}
		for _, id := range args {
			c.table.ToggleSelect(id)
		}
		c.render()
		return nil
	case "selectall":
		c.table.SelectAllOnPage()
		c.render()
		return nil
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: delete <id>")
		}
		return c.requestDelete(args[0])
	case "confirm":
		return c.confirmDelete(ctx)
	case "cancel":
		c.table.CancelDelete()
		fmt.Fprintln(c.out, "Delete cancelled.")
		return nil
	case "import":
		return c.importUsers(ctx, args)
	}
	return ErrUnknownCommand
}

func (c *Console) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	user, err := c.api.Login(ctx, client.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	c.startSession(user)
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (c *Console) logout(ctx context.Context) error {
	if c.user == nil {
		return ErrNotSignedIn
	}
	err := c.api.Logout(ctx)
	c.endSession()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *Console) me(ctx context.Context) error {
	user, err := c.api.Me(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			c.endSession()
		}
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func (c *Console) stats(ctx context.Context) error {
	stats, err := c.api.Stats(ctx)
	if err != nil {
		return err
	}
	renderStats(c.out, stats)
	return nil
}

func (c *Console) refresh(ctx context.Context, op func(context.Context) error) error {
	if err := op(ctx); err != nil {
		return err
	}
	c.render()
	return nil
}

func (c *Console) requestDelete(id string) error {
	view := c.table.Snapshot()
	label := id
	for _, u := range view.Items {
		if u.ID == id {
			label = fmt.Sprintf("%s <%s>", u.Name, u.Email)
			break
		}
	}
	c.table.RequestDelete(id)
	fmt.Fprintf(c.out, "Delete user %s? This action cannot be undone. Type confirm or cancel.\n", label)
	return nil
}

func (c *Console) confirmDelete(ctx context.Context) error {
	pending := c.table.Snapshot().PendingDelete
	if pending == "" {
		return errors.New("nothing to confirm, use: delete <id>")
	}
	if err := c.table.ConfirmDelete(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted user %s.\n", pending)
	c.render()
	return nil
}

// importUsers accepts "import <file.json>" or "import --object <key>". A file
// holds either a JSON array of users or {"users": [...]}.
func (c *Console) importUsers(ctx context.Context, args []string) error {
	var req client.ImportRequest
	switch {
	case len(args) == 2 && args[0] == "--object":
		req.ObjectKey = args[1]
	case len(args) == 1:
		users, err := c.loadImportFile(args[0])
		if err != nil {
			return err
		}
		req.Users = users
	default:
		return errors.New("usage: import <file.json> | import --object <key>")
	}

	res, err := c.api.ImportUsers(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Imported %d users", res.Imported)
	if res.Skipped > 0 {
		fmt.Fprintf(c.out, ", skipped %d existing", res.Skipped)
	}
	fmt.Fprintln(c.out, ".")
	return c.refresh(ctx, c.table.Refetch)
}

func (c *Console) loadImportFile(path string) ([]client.ImportUser, error) {
	data, err := c.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	var users []client.ImportUser
	if err := json.Unmarshal(data, &users); err == nil {
		return users, nil
	}
	var wrapped client.ImportRequest
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("import file %s is not valid JSON: %w", path, err)
	}
	return wrapped.Users, nil
}

func (c *Console) startSession(user client.User) {
	c.endSession()
	c.user = &user
	c.table = table.New(c.api,
		table.WithPerPage(c.perPage),
		table.WithLogger(c.log),
	)
}

func (c *Console) endSession() {
	if c.table != nil {
		c.table.Close()
	}
	c.table = nil
	c.user = nil
}

func (c *Console) render() {
	renderTable(c.out, c.table.Snapshot())
}

func (c *Console) printError(err error) {
	msg := err.Error()
	var apiErr *client.Error
	if errors.As(err, &apiErr) && err == error(apiErr) {
		msg = apiErr.Message
	}
	fmt.Fprintf(c.out, "error: %s\n", msg)
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  login <email> <password>   sign in
  logout                     sign out
  me                         show the signed-in user
  stats                      dashboard summary
  users                      reload the user table
  search <text>              filter by name, email or role
  clear                      clear the search
  page <n> | next | prev     move between pages
  select <id> [id...]        toggle row selection
  selectall                  toggle every row on this page
  delete <id>                ask to delete a user
  confirm | cancel           answer the delete prompt
  import <file.json>         import users from a local file
  import --object <key>      import users from the imports bucket
  help                       this text
  quit                       exit
`)
}
