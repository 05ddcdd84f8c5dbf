package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recipesmd/recipesmd/models"
)

// ErrNotFound is returned when a slug has no cached row.
var ErrNotFound = errors.New("recipe not in cache")

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// UpsertRecipe inserts or replaces a recipe's metadata and markdown.
func (s *Store) UpsertRecipe(summary models.RecipeSummary, markdown string) error {
	_, err := s.Exec(`
		INSERT INTO recipes (slug, title, url, category, total_time, meal, ethnicity, diet_friendly, tags, markdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			category = excluded.category,
			total_time = excluded.total_time,
			meal = excluded.meal,
			ethnicity = excluded.ethnicity,
			diet_friendly = excluded.diet_friendly,
			tags = excluded.tags,
			markdown = excluded.markdown,
			updated_at = CURRENT_TIMESTAMP
	`, summary.Slug, summary.Title, summary.URL, summary.Category, summary.TotalTime,
		encodeList(summary.Meal), encodeList(summary.Ethnicity),
		encodeList(summary.DietFriendly), encodeList(summary.Tags), markdown)
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}
	return nil
}

// GetRecipe loads one cached recipe by slug.
func (s *Store) GetRecipe(slug string) (*models.Recipe, error) {
	var r models.Recipe
	var meal, ethnicity, diet, tags string
	err := s.QueryRow(`
		SELECT slug, title, url, category, total_time, meal, ethnicity, diet_friendly, tags, markdown
		FROM recipes WHERE slug = ?
	`, slug).Scan(
		&r.Metadata.Slug, &r.Metadata.Title, &r.Metadata.URL, &r.Metadata.Category,
		&r.Metadata.TotalTime, &meal, &ethnicity, &diet, &tags, &r.Markdown,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	r.Metadata.Meal = decodeList(meal)
	r.Metadata.Ethnicity = decodeList(ethnicity)
	r.Metadata.DietFriendly = decodeList(diet)
	r.Metadata.Tags = decodeList(tags)
	return &r, nil
}

// ListSummaries returns metadata for every cached recipe, ordered by title.
func (s *Store) ListSummaries() ([]models.RecipeSummary, error) {
	rows, err := s.Query(`
		SELECT slug, title, url, category, total_time, meal, ethnicity, diet_friendly, tags
		FROM recipes ORDER BY title COLLATE NOCASE, slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var out []models.RecipeSummary
	for rows.Next() {
		var r models.RecipeSummary
		var meal, ethnicity, diet, tags string
		if err := rows.Scan(&r.Slug, &r.Title, &r.URL, &r.Category, &r.TotalTime,
			&meal, &ethnicity, &diet, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		r.Meal = decodeList(meal)
		r.Ethnicity = decodeList(ethnicity)
		r.DietFriendly = decodeList(diet)
		r.Tags = decodeList(tags)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return out, nil
}

// PruneExcept deletes cached recipes whose slug is not in keep, returning
// the number removed. An empty keep set clears the cache.
func (s *Store) PruneExcept(keep []string) (int64, error) {
	if len(keep) == 0 {
		result, err := s.Exec("DELETE FROM recipes")
		if err != nil {
			return 0, fmt.Errorf("failed to clear cache: %w", err)
		}
		return result.RowsAffected()
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(keep)), ",")
	args := make([]any, len(keep))
	for i, slug := range keep {
		args[i] = slug
	}
	result, err := s.Exec("DELETE FROM recipes WHERE slug NOT IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// CountRecipes returns the number of cached recipes.
func (s *Store) CountRecipes() (int, error) {
	var count int
	if err := s.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// RecordSync records a completed sync run.
func (s *Store) RecordSync(startedAt time.Time, fetched, failed int, pruned int64) error {
	_, err := s.Exec(`
		INSERT INTO sync_runs (started_at, fetched, failed, pruned)
		VALUES (?, ?, ?, ?)
	`, startedAt.UTC().Format(time.RFC3339), fetched, failed, pruned)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// LastSync returns when the most recent sync finished, or zero time when the
// cache has never been synced.
func (s *Store) LastSync() (time.Time, error) {
	var finished string
	err := s.QueryRow("SELECT finished_at FROM sync_runs ORDER BY sync_id DESC LIMIT 1").Scan(&finished)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last sync: %w", err)
	}
	ts, err := time.Parse("2006-01-02 15:04:05", finished)
	if err != nil {
		// RFC3339 when written explicitly rather than by sqlite.
		ts, err = time.Parse(time.RFC3339, finished)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse sync timestamp: %w", err)
		}
	}
	return ts, nil
}
