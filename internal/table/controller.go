// Package table holds the state behind the user-management table: query,
// paging, row selection and the confirm-before-delete step.
package table

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"kirshify/admin/internal/client"
)

const DefaultPerPage = 10

var ErrClosed = errors.New("table: controller closed")

// Users is the slice of the API the controller needs.
type Users interface {
	ListUsers(ctx context.Context, p client.ListParams) (client.UserPage, error)
	DeleteUser(ctx context.Context, id string) error
}

type ErrorHandler func(error)

type Option func(*Controller)

func WithPerPage(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Controller) {
		c.onError = h
	}
}

// WithClearSelectionOnNavigate drops the selection whenever the page or the
// search text changes. By default selections survive navigation.
func WithClearSelectionOnNavigate() Option {
	return func(c *Controller) {
		c.clearOnNavigate = true
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// Controller is safe for concurrent use. Requests run outside the lock; a
// response is applied only if no newer list request was issued after it.
type Controller struct {
	api Users
	log zerolog.Logger

	perPage         int
	clearOnNavigate bool
	onError         ErrorHandler

	mu          sync.Mutex
	search      string
	page        int
	items       []client.User
	total       int
	selected    map[string]struct{}
	pending     string
	confirmOpen bool
	inflight    int
	seq         uint64
	closed      bool
}

func New(api Users, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		log:      zerolog.Nop(),
		perPage:  DefaultPerPage,
		page:     1,
		items:    []client.User{},
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TotalPages is max(1, ceil(total/perPage)).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

type View struct {
	Items             []client.User
	Total             int
	Page              int
	PerPage           int
	TotalPages        int
	Search            string
	Loading           bool
	Selected          []string
	AllOnPageSelected bool
	PendingDelete     string
	ConfirmOpen       bool
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := make([]string, 0, len(c.selected))
	for id := range c.selected {
		selected = append(selected, id)
	}
	sort.Strings(selected)

	return View{
		Items:             append([]client.User(nil), c.items...),
		Total:             c.total,
		Page:              c.page,
		PerPage:           c.perPage,
		TotalPages:        TotalPages(c.total, c.perPage),
		Search:            c.search,
		Loading:           c.inflight > 0,
		Selected:          selected,
		AllOnPageSelected: c.allOnPageSelectedLocked(),
		PendingDelete:     c.pending,
		ConfirmOpen:       c.confirmOpen,
	}
}

// SetSearch replaces the search text, resets to the first page and refetches.
func (c *Controller) SetSearch(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.search = text
	c.page = 1
	if c.clearOnNavigate {
		c.selected = make(map[string]struct{})
	}
	c.mu.Unlock()

	return c.Refetch(ctx)
}

func (c *Controller) ClearSearch(ctx context.Context) error {
	return c.SetSearch(ctx, "")
}

// SetPage moves to page n, clamped into [1, TotalPages], and refetches.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	return c.movePage(ctx, func(int) int { return n })
}

func (c *Controller) NextPage(ctx context.Context) error {
	return c.movePage(ctx, func(cur int) int { return cur + 1 })
}

func (c *Controller) PrevPage(ctx context.Context) error {
	return c.movePage(ctx, func(cur int) int { return cur - 1 })
}

func (c *Controller) movePage(ctx context.Context, next func(cur int) int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	n := next(c.page)
	if last := TotalPages(c.total, c.perPage); n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}
	if n != c.page && c.clearOnNavigate {
		c.selected = make(map[string]struct{})
	}
	c.page = n
	c.mu.Unlock()

	return c.Refetch(ctx)
}

// Refetch loads the current page. On failure the previous rows and total are
// kept and the error is passed to the error handler as well as returned. If
// the new total leaves the current page out of range, the page is clamped and
// fetched again.
func (c *Controller) Refetch(ctx context.Context) error {
	for {
		clamped, err := c.fetch(ctx)
		if err != nil || !clamped {
			return err
		}
	}
}

func (c *Controller) fetch(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	c.seq++
	token := c.seq
	params := client.ListParams{Page: c.page, PerPage: c.perPage, Query: c.search}
	c.inflight++
	c.mu.Unlock()

	res, err := c.api.ListUsers(ctx, params)

	c.mu.Lock()
	c.inflight--
	if c.closed || token != c.seq {
		c.mu.Unlock()
		c.log.Debug().Uint64("token", token).Msg("discarding stale users response")
		return false, nil
	}
	if err != nil {
		c.mu.Unlock()
		c.report(err)
		return false, err
	}

	if res.PerPage > 0 && res.PerPage != c.perPage {
		c.log.Debug().Int("requested", c.perPage).Int("served", res.PerPage).Msg("adopting server page size")
		c.perPage = res.PerPage
	}
	c.items = res.Items
	if c.items == nil {
		c.items = []client.User{}
	}
	c.total = res.Total

	clamped := false
	if last := TotalPages(c.total, c.perPage); c.page > last {
		c.page = last
		clamped = true
	}
	c.mu.Unlock()
	return clamped, nil
}

// ToggleSelect flips id in the selection. Ids not on the current page are
// accepted.
func (c *Controller) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return
	}
	c.selected[id] = struct{}{}
}

// SelectAllOnPage deselects the current rows if all of them are selected and
// selects them otherwise. Rows on other pages are untouched.
func (c *Controller) SelectAllOnPage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.allOnPageSelectedLocked() {
		for _, u := range c.items {
			delete(c.selected, u.ID)
		}
		return
	}
	for _, u := range c.items {
		c.selected[u.ID] = struct{}{}
	}
}

func (c *Controller) allOnPageSelectedLocked() bool {
	if len(c.items) == 0 {
		return false
	}
	for _, u := range c.items {
		if _, ok := c.selected[u.ID]; !ok {
			return false
		}
	}
	return true
}

// RequestDelete stages id and opens the confirmation. Nothing is sent.
func (c *Controller) RequestDelete(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.pending = id
	c.confirmOpen = true
	c.mu.Unlock()
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pending = ""
	c.confirmOpen = false
	c.mu.Unlock()
}

// ConfirmDelete deletes the staged id and refetches the current page. Without
// a staged id it does nothing. On failure the id stays staged and the
// confirmation stays open so the user can retry or cancel.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	id := c.pending
	if id == "" {
		c.mu.Unlock()
		return nil
	}
	c.inflight++
	c.mu.Unlock()

	err := c.api.DeleteUser(ctx, id)

	c.mu.Lock()
	c.inflight--
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.report(err)
		return err
	}
	if c.pending == id {
		c.pending = ""
		c.confirmOpen = false
	}
	delete(c.selected, id)
	c.mu.Unlock()

	return c.Refetch(ctx)
}

// Close detaches the controller from its view. Responses that arrive later
// are dropped and further operations return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) report(err error) {
	c.log.Warn().Err(err).Int("status", client.StatusOf(err)).Msg("users request failed")
	if c.onError != nil {
		c.onError(err)
	}
}
