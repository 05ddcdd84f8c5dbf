// Package nav resolves paths to views. Resolution is a pure function of the
// path, its query parameters, and the route state (account existence,
// authentication, pending share), so back/forward replays deterministically.
// Redirect chains are followed internally and the final resolution reports
// the canonical path.
package nav

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/recipesmd/recipesmd/models"
)

type View string

const (
	ViewList    View = "home-list"
	ViewDetail  View = "recipe-detail"
	ViewAccount View = "account"
)

type AccountMode string

const (
	ModeLogin    AccountMode = "login"
	ModeRegister AccountMode = "register"
	ModeSignedIn AccountMode = "signed-in"
)

// RouteState is the slice of controller state that routing depends on.
type RouteState struct {
	HasUsers      bool
	Authenticated bool
	SharePending  bool
}

// Resolution is the outcome of resolving one path change.
type Resolution struct {
	Path        string
	View        View
	AccountMode AccountMode
	Slug        string

	// Reload is set when the view should fetch from the server. Rule 7's
	// fallback activates the list without one.
	Reload bool

	// ApplyShare is set when the resolved view should try to consume the
	// pending share payload after its load completes.
	ApplyShare bool

	// CaptureShare carries query parameters captured on a share-intake
	// path; the controller stores it as the pending payload.
	CaptureShare *models.SharePayload

	// Message is a contextual status to show on arrival.
	Message string
}

const (
	detailPrefix = "/recipes/"

	MsgSignIn           = "Please sign in."
	MsgSignInToView     = "Please sign in to view recipes."
	MsgSignInToAddShare = "Please sign in to add the shared recipe."
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractShareURL returns the first HTTP(S) URL substring in text, or "".
func ExtractShareURL(text string) string {
	return urlPattern.FindString(text)
}

// Canonicalize normalizes a path: query and fragment stripped, leading
// slash, collapsed slashes, no trailing slash except root.
func Canonicalize(path string) string {
	path, _ = SplitQuery(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// SplitQuery separates a path from an embedded query string, returning
// the bare path and the parsed parameters. A fragment is discarded, as is
// a query string that does not parse.
func SplitQuery(path string) (string, url.Values) {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	bare, rawQuery, found := strings.Cut(path, "?")
	if !found {
		return bare, nil
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return bare, nil
	}
	return bare, query
}

// Resolve maps a path change to a resolution. The transition rules are
// priority ordered; the first matching rule wins, and internal redirects
// re-enter the table with the new path. Query parameters embedded in the
// path supplement the explicit ones, which win on overlap.
func Resolve(path string, query url.Values, state RouteState) Resolution {
	bare, embedded := SplitQuery(path)
	if len(embedded) > 0 {
		merged := url.Values{}
		for key, values := range query {
			merged[key] = values
		}
		for key, values := range embedded {
			if _, ok := merged[key]; !ok {
				merged[key] = values
			}
		}
		query = merged
	}
	path = Canonicalize(bare)

	var captured *models.SharePayload
	// Redirect chains are short (share-target -> add -> recipes is the
	// longest); the bound only guards against a resolver bug.
	for i := 0; i < 8; i++ {
		res, redirect := resolveOnce(path, query, state)
		if res.CaptureShare != nil {
			captured = res.CaptureShare
			state.SharePending = true
			query = nil
		}
		if redirect == "" {
			res.CaptureShare = captured
			return res
		}
		path = redirect
	}

	return Resolution{Path: "/recipes", View: ViewList, CaptureShare: captured}
}

// resolveOnce applies the first matching transition rule. A non-empty
// redirect re-enters resolution at that path.
func resolveOnce(path string, query url.Values, state RouteState) (Resolution, string) {
	switch {
	// Rule 1: root redirects by account state.
	case path == "/":
		if !state.HasUsers {
			return Resolution{}, "/account/register"
		}
		if !state.Authenticated {
			return Resolution{}, "/account/login"
		}
		return Resolution{}, "/recipes"

	// Rule 2: recipe list requires an account and a session.
	case path == "/recipes":
		if !state.HasUsers {
			return Resolution{}, "/account/register"
		}
		if !state.Authenticated {
			return Resolution{
				Path:        "/account/login",
				View:        ViewAccount,
				AccountMode: ModeLogin,
				Message:     signInMessage(state),
			}, ""
		}
		return Resolution{Path: path, View: ViewList, Reload: true, ApplyShare: true}, ""

	// Rule 3: share intake captures query parameters then joins the list
	// flow. The installed share target redirects through the generic path.
	case path == "/add":
		return Resolution{CaptureShare: models.NewSharePayload(
			query.Get("url"), query.Get("title"), query.Get("text"),
		)}, "/recipes"
	case path == "/share-target":
		return Resolution{}, "/add"

	// Rule 4: account sub-routes follow eligibility.
	case path == "/account", path == "/account/login", path == "/account/register":
		return resolveAccount(path, state)

	// Rule 5: recipe detail, same gate as the list.
	case strings.HasPrefix(path, detailPrefix):
		slug := strings.TrimPrefix(path, detailPrefix)
		if slug == "" || strings.Contains(slug, "/") {
			break
		}
		if !state.HasUsers {
			return Resolution{}, "/account/register"
		}
		if !state.Authenticated {
			// The requested slug is not replayed after sign-in.
			return Resolution{
				Path:        "/account/login",
				View:        ViewAccount,
				AccountMode: ModeLogin,
				Message:     signInMessage(state),
			}, ""
		}
		return Resolution{Path: path, View: ViewDetail, Slug: slug, Reload: true, ApplyShare: true}, ""

	// Rule 6: a bare single segment is a legacy detail link.
	case strings.Count(path, "/") == 1 && len(path) > 1:
		return Resolution{}, detailPrefix + strings.TrimPrefix(path, "/")
	}

	// Rule 7: fall back to the list without a reload.
	return Resolution{Path: "/recipes", View: ViewList}, ""
}

func signInMessage(state RouteState) string {
	if state.SharePending {
		return MsgSignInToAddShare
	}
	return MsgSignInToView
}

func resolveAccount(path string, state RouteState) (Resolution, string) {
	switch path {
	case "/account/login":
		if !state.HasUsers {
			return Resolution{}, "/account/register"
		}
		if state.Authenticated {
			return Resolution{}, "/recipes"
		}
		return Resolution{
			Path:        path,
			View:        ViewAccount,
			AccountMode: ModeLogin,
			Message:     MsgSignIn,
		}, ""

	case "/account/register":
		if state.HasUsers {
			// Registration needs an admin session once accounts exist;
			// signed-in visitors go back to the list.
			if state.Authenticated {
				return Resolution{}, "/recipes"
			}
			return Resolution{}, "/account/login"
		}
		return Resolution{Path: path, View: ViewAccount, AccountMode: ModeRegister}, ""
	}

	// Bare /account follows eligibility.
	mode := eligibleMode(state)
	return Resolution{Path: pathForMode(mode), View: ViewAccount, AccountMode: mode}, ""
}

// eligibleMode picks the account sub-mode the current state allows.
func eligibleMode(state RouteState) AccountMode {
	switch {
	case !state.HasUsers:
		return ModeRegister
	case !state.Authenticated:
		return ModeLogin
	default:
		return ModeSignedIn
	}
}

func pathForMode(mode AccountMode) string {
	switch mode {
	case ModeRegister:
		return "/account/register"
	case ModeLogin:
		return "/account/login"
	default:
		return "/account"
	}
}
