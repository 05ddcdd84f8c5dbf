package sync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/api"
	"github.com/recipesmd/recipesmd/pkg/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRecipeServer serves a fixed collection keyed by slug.
func fakeRecipeServer(t *testing.T, slugs []string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/recipes" {
			var list []map[string]any
			for _, slug := range slugs {
				list = append(list, map[string]any{"slug": slug, "title": slug})
			}
			json.NewEncoder(w).Encode(list)
			return
		}
		slug := strings.TrimPrefix(r.URL.Path, "/api/recipes/")
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"slug": slug, "title": slug},
			"markdown": "# " + slug + "\n",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunPullsAndPrunes(t *testing.T) {
	server := fakeRecipeServer(t, []string{"pie", "soup"})
	dir := t.TempDir()
	client := api.NewClient(server.URL, filepath.Join(dir, "session-token"))

	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer cache.Close()

	// Seed a recipe the server no longer lists.
	if err := cache.UpsertRecipe(models.RecipeSummary{Slug: "stale", Title: "Stale"}, "old"); err != nil {
		t.Fatal(err)
	}

	summary, err := Run(context.Background(), testLogger(), client, cache, 2)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Fetched != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 fetched", summary)
	}
	if summary.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", summary.Pruned)
	}

	recipe, err := cache.GetRecipe("pie")
	if err != nil {
		t.Fatalf("cached recipe missing: %v", err)
	}
	if recipe.Markdown != "# pie\n" {
		t.Errorf("Markdown = %q", recipe.Markdown)
	}

	last, err := cache.LastSync()
	if err != nil || last.IsZero() {
		t.Errorf("LastSync = %v, %v; want recorded run", last, err)
	}
}
