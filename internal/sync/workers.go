// Package sync pulls the server's collection into the local offline cache
// with a small worker pool, then prunes rows the server no longer has.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/api"
	"github.com/recipesmd/recipesmd/pkg/store"
)

// Job is one recipe to pull.
type Job struct {
	Summary models.RecipeSummary
}

// Result holds the outcome of one pulled recipe.
type Result struct {
	Slug  string
	Error error
}

// Summary reports one completed sync run.
type Summary struct {
	Fetched int
	Failed  int
	Pruned  int64
	Took    time.Duration
}

// worker pulls recipe bodies from the jobs channel and writes them to the
// cache. *sql.DB serializes concurrent writers.
func worker(ctx context.Context, id int, logger *slog.Logger, client *api.Client, cache *store.Store, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		slug := job.Summary.Slug
		logger.Debug("worker pulling recipe", "worker", id, "slug", slug)

		recipe, err := client.GetRecipe(ctx, slug)
		if err != nil {
			logger.Error("failed to pull recipe", "worker", id, "slug", slug, "error", err)
			results <- Result{Slug: slug, Error: err}
			continue
		}

		if err := cache.UpsertRecipe(recipe.Metadata, recipe.Markdown); err != nil {
			logger.Error("failed to cache recipe", "worker", id, "slug", slug, "error", err)
			results <- Result{Slug: slug, Error: err}
			continue
		}

		results <- Result{Slug: slug}
	}
}

// Run lists the collection, pulls every recipe through the pool, prunes
// slugs the server no longer lists, and records the run.
func Run(ctx context.Context, logger *slog.Logger, client *api.Client, cache *store.Store, workers int) (*Summary, error) {
	startedAt := time.Now()

	summaries, err := client.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("starting sync", "recipes", len(summaries), "workers", workers)

	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan Job, len(summaries))
	results := make(chan Result, len(summaries))

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, client, cache, &wg, jobs, results)
	}

	keep := make([]string, 0, len(summaries))
	for _, s := range summaries {
		keep = append(keep, s.Slug)
		jobs <- Job{Summary: s}
	}
	close(jobs)

	wg.Wait()
	close(results)

	summary := &Summary{}
	for result := range results {
		if result.Error != nil {
			summary.Failed++
		} else {
			summary.Fetched++
		}
	}

	pruned, err := cache.PruneExcept(keep)
	if err != nil {
		return nil, err
	}
	summary.Pruned = pruned
	summary.Took = time.Since(startedAt)

	if err := cache.RecordSync(startedAt, summary.Fetched, summary.Failed, summary.Pruned); err != nil {
		return nil, err
	}

	logger.Info("sync finished", "fetched", summary.Fetched, "failed", summary.Failed,
		"pruned", summary.Pruned, "took", summary.Took.Round(time.Millisecond))
	return summary, nil
}
