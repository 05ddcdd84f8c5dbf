// Package api is the HTTP client for the recipe server. All recipe and auth
// endpoints live under {server}/api; authentication rides on the
// access_token cookie, which the client persists to a token file so separate
// invocations share one session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/recipesmd/recipesmd/models"
)

// ErrUnauthenticated is returned when the server rejects the session. The
// caller should clear local state and prompt for sign-in.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrRegistrationClosed is returned when account creation requires an admin
// session the caller does not have.
var ErrRegistrationClosed = errors.New("registration is closed")

// StatusError carries a non-2xx response with the server's detail message.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

type Client struct {
	client    *http.Client
	baseURL   string
	tokenPath string
}

func NewClient(serverURL, tokenPath string) *Client {
	return &Client{
		// No request timeout; scrapes can run long.
		client:    &http.Client{},
		baseURL:   strings.TrimRight(serverURL, "/"),
		tokenPath: tokenPath,
	}
}

// Token returns the persisted session token, or "" when signed out.
func (c *Client) Token() string {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(c.tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

// ClearToken removes the persisted session. Missing file is not an error.
func (c *Client) ClearToken() error {
	err := os.Remove(c.tokenPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func readDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}

// RegistrationStatus reports whether any account exists yet. It needs no
// session.
func (c *Client) RegistrationStatus(ctx context.Context) (bool, error) {
	var out struct {
		HasUsers bool `json:"has_users"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/registration-status", nil, &out); err != nil {
		return false, err
	}
	return out.HasUsers, nil
}

// Me returns the signed-in user, or ErrUnauthenticated.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a session token and persists it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("server returned no access token")
	}
	return c.saveToken(out.AccessToken)
}

// Logout ends the server session and clears the persisted token. The local
// token is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	serverErr := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err := c.ClearToken(); err != nil {
		return err
	}
	if serverErr != nil && !errors.Is(serverErr, ErrUnauthenticated) {
		return serverErr
	}
	return nil
}

// Register creates an account. Only the first account may be created without
// a session; afterwards the server requires an admin session and this
// returns ErrRegistrationClosed.
func (c *Client) Register(ctx context.Context, username, password string) (*models.User, error) {
	body := map[string]string{"username": username, "password": password}
	var user models.User
	err := c.do(ctx, http.MethodPost, "/auth/register", body, &user)
	if err != nil {
		var statusErr *StatusError
		if errors.Is(err, ErrUnauthenticated) {
			return nil, ErrRegistrationClosed
		}
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden {
			return nil, ErrRegistrationClosed
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, http.MethodPost, "/auth/change-password", body, nil)
}

// ListRecipes returns the metadata of every saved recipe.
func (c *Client) ListRecipes(ctx context.Context) ([]models.RecipeSummary, error) {
	var out []models.RecipeSummary
	if err := c.do(ctx, http.MethodGet, "/recipes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecipe fetches one recipe's metadata and markdown by slug.
func (c *Client) GetRecipe(ctx context.Context, slug string) (*models.Recipe, error) {
	var out models.Recipe
	if err := c.do(ctx, http.MethodGet, "/recipes/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scrape asks the server to fetch a source URL, extract the recipe as
// markdown, and save it. Scraping can take a while.
func (c *Client) Scrape(ctx context.Context, sourceURL string) (*models.Recipe, error) {
	body := map[string]string{"url": sourceURL}
	var out models.Recipe
	if err := c.do(ctx, http.MethodPost, "/recipes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rescrape re-fetches a saved recipe from its source URL.
func (c *Client) Rescrape(ctx context.Context, slug string) (*models.Recipe, error) {
	var out models.Recipe
	if err := c.do(ctx, http.MethodPost, "/recipes/"+url.PathEscape(slug)+"/rescrape", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
