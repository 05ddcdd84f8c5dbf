// Package app owns the client state: authentication, the cached recipe
// collection, filter selections, the pending share payload, and the current
// view. All mutation goes through named transitions on the Controller so the
// flow is testable without a presentation layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipesmd/recipesmd/internal/nav"
	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/api"
	"github.com/recipesmd/recipesmd/pkg/facets"
)

// Server is the collaborator API surface the controller drives. *api.Client
// implements it.
type Server interface {
	RegistrationStatus(ctx context.Context) (bool, error)
	Me(ctx context.Context) (*models.User, error)
	ListRecipes(ctx context.Context) ([]models.RecipeSummary, error)
	GetRecipe(ctx context.Context, slug string) (*models.Recipe, error)
	Scrape(ctx context.Context, sourceURL string) (*models.Recipe, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, username, password string) (*models.User, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// User-visible status messages.
const (
	MsgNoRecipes          = "No recipes saved yet."
	MsgNoMatches          = "No recipes match your filters."
	MsgSessionExpired     = "Session expired. Please sign in again."
	MsgShareNoURL         = "Shared item does not include a URL."
	MsgShareReady         = "Ready to add shared recipe."
	MsgRegistrationClosed = "Registration is closed. Please sign in."
	MsgAccountCreated     = "Account created. Please sign in."
	MsgSignedOut          = "Signed out."
	MsgFirstAccount       = "Create the first account to get started."
	MsgConnectivity       = "Could not reach the server. Check your connection."
)

// QuickAdd is the always-visible control for submitting a new recipe URL.
type QuickAdd struct {
	Expanded bool
	URL      string
}

// Controller holds all mutable client state. It is single-threaded by
// contract; overlapping in-flight requests are handled with per-view
// generation counters and per-action busy flags, not locks.
type Controller struct {
	server Server
	logger *slog.Logger

	hasUsers bool
	user     *models.User

	resolution nav.Resolution
	recipes    []models.RecipeSummary
	derived    []models.Facets
	detail     *models.Recipe
	filter     models.FilterState

	quickAdd QuickAdd

	// One-shot values, consumed on read. Setting a new one overwrites an
	// unconsumed predecessor.
	pendingShare   *models.SharePayload
	pendingMessage string

	// Superseded responses are discarded when their generation is stale.
	listGen   uint64
	detailGen uint64

	inflight map[string]bool
}

func NewController(server Server, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		server:   server,
		logger:   logger,
		filter:   models.NewFilterState(),
		inflight: make(map[string]bool),
	}
}

// Bootstrap loads account existence and the current session before the
// first navigation.
func (c *Controller) Bootstrap(ctx context.Context) error {
	hasUsers, err := c.server.RegistrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to check registration status: %w", err)
	}
	c.hasUsers = hasUsers

	if user, err := c.server.Me(ctx); err == nil {
		c.user = user
	} else if !errors.Is(err, api.ErrUnauthenticated) {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return nil
}

func (c *Controller) routeState() nav.RouteState {
	return nav.RouteState{
		HasUsers:      c.hasUsers,
		Authenticated: c.user != nil,
		SharePending:  c.pendingShare != nil,
	}
}

// Authenticated reports whether a session is active.
func (c *Controller) Authenticated() bool { return c.user != nil }

// CurrentUser returns the signed-in user, or nil.
func (c *Controller) CurrentUser() *models.User { return c.user }

// Current returns the active resolution.
func (c *Controller) Current() nav.Resolution { return c.resolution }

// QuickAddState returns the quick-add control state.
func (c *Controller) QuickAddState() QuickAdd { return c.quickAdd }

// Recipes returns the last loaded collection.
func (c *Controller) Recipes() []models.RecipeSummary { return c.recipes }

// Detail returns the last loaded recipe, or nil while loading.
func (c *Controller) Detail() *models.Recipe { return c.detail }

// ConsumeMessage returns the pending status message and clears it.
func (c *Controller) ConsumeMessage() string {
	msg := c.pendingMessage
	c.pendingMessage = ""
	return msg
}

func (c *Controller) setMessage(msg string) {
	if msg != "" {
		c.pendingMessage = msg
	}
}

// begin marks an action in flight. It returns false when the same action is
// already running; a different action may still start.
func (c *Controller) begin(action string) bool {
	if c.inflight[action] {
		return false
	}
	c.inflight[action] = true
	return true
}

func (c *Controller) end(action string) {
	delete(c.inflight, action)
}

// Busy reports whether the named action has a request in flight.
func (c *Controller) Busy(action string) bool { return c.inflight[action] }

// Navigate resolves a path change and performs the loads the resolution
// asks for. The query carries share-intake parameters when present.
func (c *Controller) Navigate(ctx context.Context, path string, query map[string][]string) nav.Resolution {
	res := nav.Resolve(path, query, c.routeState())

	if res.CaptureShare != nil {
		c.pendingShare = res.CaptureShare
	}
	c.resolution = res
	c.setMessage(res.Message)
	if res.View == nav.ViewAccount && res.AccountMode == nav.ModeRegister && !c.hasUsers {
		c.setMessage(MsgFirstAccount)
	}

	if res.Reload {
		switch res.View {
		case nav.ViewList:
			c.loadList(ctx, res.ApplyShare)
		case nav.ViewDetail:
			c.loadDetail(ctx, res.Slug, res.ApplyShare)
		}
	}
	return c.resolution
}

// loadList fetches the collection. A response from a superseded load is
// discarded.
func (c *Controller) loadList(ctx context.Context, applyShare bool) {
	if !c.begin("load-list") {
		return
	}
	defer c.end("load-list")

	c.listGen++
	gen := c.listGen

	recipes, err := c.server.ListRecipes(ctx)
	if err != nil {
		c.handleError("list recipes", err)
		return
	}
	if gen != c.listGen {
		c.logger.Debug("discarding stale list response", "generation", gen)
		return
	}

	c.recipes = recipes
	c.derived = make([]models.Facets, len(recipes))
	for i, r := range recipes {
		c.derived[i] = facets.Derive(r)
	}
	if applyShare {
		c.applyPendingShare()
	}
}

// loadDetail fetches one recipe by slug.
func (c *Controller) loadDetail(ctx context.Context, slug string, applyShare bool) {
	if !c.begin("load-detail") {
		return
	}
	defer c.end("load-detail")

	c.detailGen++
	gen := c.detailGen
	c.detail = nil

	recipe, err := c.server.GetRecipe(ctx, slug)
	if err != nil {
		c.handleError("load recipe", err)
		return
	}
	if gen != c.detailGen {
		c.logger.Debug("discarding stale detail response", "slug", slug, "generation", gen)
		return
	}

	c.detail = recipe
	if applyShare {
		c.applyPendingShare()
	}
}

// applyPendingShare consumes the pending payload: with a derivable URL the
// quick-add control is pre-filled and expanded; without one the payload is
// dropped and not re-offered.
func (c *Controller) applyPendingShare() {
	payload := c.pendingShare
	if payload == nil {
		return
	}
	c.pendingShare = nil

	shareURL := payload.URL
	if shareURL == "" {
		shareURL = nav.ExtractShareURL(payload.Text)
	}
	if shareURL == "" {
		c.setMessage(MsgShareNoURL)
		return
	}

	c.quickAdd = QuickAdd{Expanded: true, URL: shareURL}
	if payload.Title != "" {
		c.setMessage("Shared: " + payload.Title)
	} else {
		c.setMessage(MsgShareReady)
	}
}

// handleError funnels request failures: 401 always expires the session,
// other statuses surface their detail, transport failures surface a generic
// connectivity message.
func (c *Controller) handleError(op string, err error) {
	if errors.Is(err, api.ErrUnauthenticated) {
		c.expireSession()
		return
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		c.logger.Error("request failed", "operation", op, "status", statusErr.StatusCode, "detail", statusErr.Detail)
		if statusErr.Detail != "" {
			c.setMessage(statusErr.Detail)
		} else {
			c.setMessage(fmt.Sprintf("Request failed with status %d.", statusErr.StatusCode))
		}
		return
	}

	c.logger.Error("request failed", "operation", op, "error", err)
	c.setMessage(MsgConnectivity)
}

// expireSession clears cached authentication and routes to the login
// sub-mode, regardless of which action hit the expiry.
func (c *Controller) expireSession() {
	c.user = nil
	c.resolution = nav.Resolution{
		Path:        "/account/login",
		View:        nav.ViewAccount,
		AccountMode: nav.ModeLogin,
	}
	c.setMessage(MsgSessionExpired)
}

// SignIn authenticates and re-enters the list flow.
func (c *Controller) SignIn(ctx context.Context, username, password string) error {
	if !c.begin("sign-in") {
		return nil
	}
	defer c.end("sign-in")

	if err := c.server.Login(ctx, username, password); err != nil {
		c.handleAuthError(err)
		return err
	}
	user, err := c.server.Me(ctx)
	if err != nil {
		c.handleError("load session", err)
		return err
	}
	c.user = user
	c.hasUsers = true
	c.Navigate(ctx, "/recipes", nil)
	return nil
}

// handleAuthError surfaces login failures without the session-expiry
// funnel: a 401 here means bad credentials, not a stale session.
func (c *Controller) handleAuthError(err error) {
	if errors.Is(err, api.ErrUnauthenticated) {
		c.setMessage("Incorrect username or password.")
		return
	}
	c.handleError("sign in", err)
}

// SignOut ends the session and routes to login.
func (c *Controller) SignOut(ctx context.Context) error {
	if !c.begin("sign-out") {
		return nil
	}
	defer c.end("sign-out")

	if err := c.server.Logout(ctx); err != nil {
		c.handleError("sign out", err)
		return err
	}
	c.user = nil
	c.resolution = nav.Resolution{
		Path:        "/account/login",
		View:        nav.ViewAccount,
		AccountMode: nav.ModeLogin,
	}
	c.setMessage(MsgSignedOut)
	return nil
}

// RegisterAccount creates an account and routes to login on success.
func (c *Controller) RegisterAccount(ctx context.Context, username, password string) error {
	if !c.begin("register") {
		return nil
	}
	defer c.end("register")

	_, err := c.server.Register(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrRegistrationClosed) {
			c.hasUsers = true
			c.setMessage(MsgRegistrationClosed)
			c.resolution = nav.Resolution{
				Path:        "/account/login",
				View:        nav.ViewAccount,
				AccountMode: nav.ModeLogin,
			}
			return err
		}
		c.handleError("register", err)
		return err
	}

	c.hasUsers = true
	c.setMessage(MsgAccountCreated)
	c.resolution = nav.Resolution{
		Path:        "/account/login",
		View:        nav.ViewAccount,
		AccountMode: nav.ModeLogin,
	}
	return nil
}

// SubmitQuickAdd sends the quick-add URL for scraping. The control collapses
// on success and keeps its value on failure.
func (c *Controller) SubmitQuickAdd(ctx context.Context, sourceURL string) (*models.Recipe, error) {
	if !c.begin("quick-add") {
		return nil, nil
	}
	defer c.end("quick-add")

	recipe, err := c.server.Scrape(ctx, sourceURL)
	if err != nil {
		c.handleError("add recipe", err)
		return nil, err
	}
	c.quickAdd = QuickAdd{}
	c.setMessage("Added: " + recipe.Metadata.DisplayTitle())
	return recipe, nil
}

// SetFilter replaces the filter selection.
func (c *Controller) SetFilter(state models.FilterState) {
	if state == nil {
		state = models.NewFilterState()
	}
	c.filter = state
}

// ToggleFilter flips one facet value in the selection.
func (c *Controller) ToggleFilter(facet, value string) {
	selected := c.filter[facet]
	if selected == nil {
		selected = make(map[string]bool)
		c.filter[facet] = selected
	}
	if selected[value] {
		delete(selected, value)
	} else {
		selected[value] = true
	}
}

// Filter returns the current selection.
func (c *Controller) Filter() models.FilterState { return c.filter }

// VisibleRecipes applies the filter selection to the loaded collection.
func (c *Controller) VisibleRecipes() []models.RecipeSummary {
	var out []models.RecipeSummary
	for i, r := range c.recipes {
		if facets.Matches(c.derived[i], c.filter) {
			out = append(out, r)
		}
	}
	return out
}

// FacetOptions aggregates selectable facet values across the collection.
func (c *Controller) FacetOptions() facets.Options {
	return facets.BuildOptions(c.derived)
}

// EmptyMessage distinguishes an empty library from an empty filter result.
// It returns "" when recipes are visible.
func (c *Controller) EmptyMessage() string {
	if len(c.recipes) == 0 {
		return MsgNoRecipes
	}
	if len(c.VisibleRecipes()) == 0 {
		return MsgNoMatches
	}
	return ""
}
