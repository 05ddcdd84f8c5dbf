package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, filepath.Join(t.TempDir(), "session-token"))
}

func TestNewClientImposesNoTimeout(t *testing.T) {
	// Scrape requests can run for minutes; only transport-level timeouts
	// should apply.
	client := NewClient("http://localhost:8000", filepath.Join(t.TempDir(), "session-token"))
	if client.client.Timeout != 0 {
		t.Errorf("http client timeout = %v, want none", client.client.Timeout)
	}
}

func TestLoginPersistsToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode login body: %v", err)
		}
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("login body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	}))

	if err := client.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got := client.Token(); got != "tok-123" {
		t.Errorf("Token() = %q, want %q", got, "tok-123")
	}
}

func TestTokenSentAsCookie(t *testing.T) {
	var gotCookie string
	var gotRequestID string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("access_token"); err == nil {
			gotCookie = c.Value
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]any{})
	}))
	if err := os.WriteFile(client.tokenPath, []byte("tok-456\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := client.ListRecipes(context.Background()); err != nil {
		t.Fatalf("ListRecipes error: %v", err)
	}
	if gotCookie != "tok-456" {
		t.Errorf("access_token cookie = %q, want %q", gotCookie, "tok-456")
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
	}))

	_, err := client.ListRecipes(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestStatusErrorCarriesDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Current password is incorrect"})
	}))

	err := client.ChangePassword(context.Background(), "old", "new")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", statusErr.StatusCode)
	}
	if statusErr.Detail != "Current password is incorrect" {
		t.Errorf("Detail = %q", statusErr.Detail)
	}
}

func TestRegisterClosed(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Authentication required to create users"})
		}))
		_, err := client.Register(context.Background(), "bob", "pw")
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Errorf("status %d: err = %v, want ErrRegistrationClosed", status, err)
		}
	}
}

func TestRegistrationStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/registration-status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]bool{"has_users": true})
	}))

	hasUsers, err := client.RegistrationStatus(context.Background())
	if err != nil {
		t.Fatalf("RegistrationStatus error: %v", err)
	}
	if !hasUsers {
		t.Error("has_users = false, want true")
	}
}

func TestLogoutClearsTokenEvenOnServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if err := os.WriteFile(client.tokenPath, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if got := client.Token(); got != "" {
		t.Errorf("Token() = %q, want empty after logout", got)
	}
}

func TestGetRecipe(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recipes/shakshuka" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"slug": "shakshuka", "title": "Shakshuka"},
			"markdown": "---\ntitle: Shakshuka\n---\n# Shakshuka\n",
		})
	}))

	recipe, err := client.GetRecipe(context.Background(), "shakshuka")
	if err != nil {
		t.Fatalf("GetRecipe error: %v", err)
	}
	if recipe.Metadata.Slug != "shakshuka" {
		t.Errorf("Slug = %q", recipe.Metadata.Slug)
	}
	if recipe.Markdown == "" {
		t.Error("expected markdown body")
	}
}
