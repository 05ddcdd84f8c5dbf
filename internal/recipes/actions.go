// Package recipes holds the CLI actions for browsing, listing, showing,
// adding, and rendering recipes.
package recipes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/recipesmd/recipesmd/internal/app"
	"github.com/recipesmd/recipesmd/internal/common"
	"github.com/recipesmd/recipesmd/internal/nav"
	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/api"
	"github.com/recipesmd/recipesmd/pkg/duration"
	"github.com/recipesmd/recipesmd/pkg/facets"
	"github.com/recipesmd/recipesmd/pkg/markdown"
	"github.com/recipesmd/recipesmd/pkg/store"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func newController(c *cli.Context, logger *slog.Logger) (*app.Controller, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	controller := app.NewController(common.NewClient(cfg), logger)
	if err := controller.Bootstrap(c.Context); err != nil {
		return nil, err
	}
	return controller, nil
}

// ListAction lists recipes, optionally filtered by facet=value arguments.
func ListAction(c *cli.Context) error {
	logger := newLogger(c)

	filter, err := facets.ParseSelection(c.Args().Slice())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	var summaries []models.RecipeSummary
	if c.Bool("offline") {
		summaries, err = offlineSummaries(c, logger)
		if err != nil {
			logger.Error("failed to read offline cache", "error", err)
			os.Exit(2)
		}
		printList(filterOffline(summaries, filter), c.String("output"))
		return nil
	}

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	res := controller.Navigate(c.Context, "/recipes", nil)
	if res.View != nav.ViewList {
		fmt.Println(controller.ConsumeMessage())
		os.Exit(1)
	}
	if msg := controller.ConsumeMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	controller.SetFilter(filter)
	if c.Bool("facets") {
		printFacetOptions(controller.FacetOptions())
		return nil
	}
	printList(controller.VisibleRecipes(), c.String("output"))
	if msg := controller.EmptyMessage(); msg != "" {
		fmt.Println(msg)
	}
	return nil
}

// printFacetOptions lists the selectable values per facet, with per-bucket
// recipe counts for the time facet.
func printFacetOptions(opts facets.Options) {
	for _, key := range models.FacetKeys {
		if key == models.FacetTime {
			fmt.Println("time:")
			for _, b := range facets.Buckets {
				fmt.Printf("  %s (%s): %d\n", b.ID, b.Label, opts.BucketCount[b.ID])
			}
			continue
		}
		values := opts.Values(key)
		if len(values) == 0 {
			continue
		}
		fmt.Printf("%s: %s\n", key, strings.Join(values, ", "))
	}
}

func offlineSummaries(c *cli.Context, logger *slog.Logger) ([]models.RecipeSummary, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	cache, err := store.Open(cfg.CachePath())
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	last, err := cache.LastSync()
	if err == nil && !last.IsZero() {
		logger.Info("using offline cache", "last_sync", last)
	}
	return cache.ListSummaries()
}

func filterOffline(summaries []models.RecipeSummary, filter models.FilterState) []models.RecipeSummary {
	if filter.Empty() {
		return summaries
	}
	var out []models.RecipeSummary
	for _, r := range summaries {
		if facets.Matches(facets.Derive(r), filter) {
			out = append(out, r)
		}
	}
	return out
}

func printList(summaries []models.RecipeSummary, output string) {
	if output == "yaml" {
		data, err := yaml.Marshal(summaries)
		if err == nil {
			fmt.Print(string(data))
		}
		return
	}

	for _, r := range summaries {
		line := r.Slug + "\t" + r.DisplayTitle()
		if _, ok := duration.ParseMinutes(r.TotalTime); ok {
			line += "\t" + duration.FormatMinutes(r.TotalTime)
		}
		if len(r.Tags) > 0 {
			line += "\t" + strings.Join(r.Tags, ", ")
		}
		fmt.Println(line)
	}
}

// ShowAction prints one recipe by slug, rendered or raw.
func ShowAction(c *cli.Context) error {
	logger := newLogger(c)

	slug := c.Args().First()
	if slug == "" {
		fmt.Fprintln(os.Stderr, "Error: usage: recipesmd show <slug>")
		os.Exit(1)
	}

	var raw string
	var fallbackTitle string
	if c.Bool("offline") {
		cfg, err := common.LoadConfig(c)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(2)
		}
		cache, err := store.Open(cfg.CachePath())
		if err != nil {
			logger.Error("failed to open offline cache", "error", err)
			os.Exit(2)
		}
		defer cache.Close()
		recipe, err := cache.GetRecipe(slug)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		raw = recipe.Markdown
		fallbackTitle = recipe.Metadata.DisplayTitle()
	} else {
		controller, err := newController(c, logger)
		if err != nil {
			logger.Error("failed to reach server", "error", err)
			os.Exit(2)
		}
		res := controller.Navigate(c.Context, "/recipes/"+slug, nil)
		if res.View != nav.ViewDetail || controller.Detail() == nil {
			if msg := controller.ConsumeMessage(); msg != "" {
				fmt.Println(msg)
			}
			os.Exit(1)
		}
		raw = controller.Detail().Markdown
		fallbackTitle = controller.Detail().Metadata.DisplayTitle()
	}

	if c.Bool("html") {
		title, markup := markdown.RenderDocument(raw, fallbackTitle)
		if title != "" {
			fmt.Println("<h1>" + markdown.EscapeHTML(title) + "</h1>")
		}
		fmt.Println(markup)
		return nil
	}
	fmt.Print(raw)
	return nil
}

// AddAction submits a recipe source URL for scraping.
func AddAction(c *cli.Context) error {
	logger := newLogger(c)

	rawURL := common.SanitizeURL(c.Args().First())
	if !common.ValidateURL(rawURL) {
		fmt.Fprintln(os.Stderr, "Error: not a valid http(s) URL:", c.Args().First())
		os.Exit(1)
	}

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	logger.Info("submitting recipe for scraping", "url", rawURL)
	recipe, err := controller.SubmitQuickAdd(c.Context, rawURL)
	if err != nil {
		fmt.Println(controller.ConsumeMessage())
		os.Exit(1)
	}
	fmt.Printf("%s (%s)\n", controller.ConsumeMessage(), recipe.Metadata.Slug)
	return nil
}

// RefreshAction re-scrapes a saved recipe from its source URL.
func RefreshAction(c *cli.Context) error {
	logger := newLogger(c)

	slug := c.Args().First()
	if slug == "" {
		fmt.Fprintln(os.Stderr, "Error: usage: recipesmd refresh <slug>")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	client := common.NewClient(cfg)

	logger.Info("re-scraping recipe", "slug", slug)
	recipe, err := client.Rescrape(c.Context, slug)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Println(app.MsgSessionExpired)
			os.Exit(1)
		}
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.Detail != "" {
			fmt.Println(statusErr.Detail)
			os.Exit(1)
		}
		logger.Error("failed to re-scrape recipe", "error", err)
		fmt.Println(app.MsgConnectivity)
		os.Exit(1)
	}
	fmt.Printf("Refreshed: %s (%s)\n", recipe.Metadata.DisplayTitle(), recipe.Metadata.Slug)
	return nil
}

// ShareAction feeds a shared payload through the intake flow, as an
// installed share target would.
func ShareAction(c *cli.Context) error {
	logger := newLogger(c)

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	query := url.Values{}
	query.Set("url", c.String("url"))
	query.Set("title", c.String("title"))
	query.Set("text", c.String("text"))

	res := controller.Navigate(c.Context, "/share-target", query)
	if msg := controller.ConsumeMessage(); msg != "" {
		fmt.Println(msg)
	}

	qa := controller.QuickAddState()
	if !qa.Expanded {
		os.Exit(1)
	}

	if c.Bool("submit") {
		recipe, err := controller.SubmitQuickAdd(c.Context, qa.URL)
		if err != nil {
			fmt.Println(controller.ConsumeMessage())
			os.Exit(1)
		}
		fmt.Printf("%s (%s)\n", controller.ConsumeMessage(), recipe.Metadata.Slug)
		return nil
	}

	logger.Info("share captured", "url", qa.URL, "view", string(res.View))
	fmt.Println("Run 'recipesmd add", qa.URL+"' to save it.")
	return nil
}

// RenderAction renders a local markdown file to markup without a server.
func RenderAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: usage: recipesmd render <file.md>")
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	title, markup := markdown.RenderDocument(string(data), strings.TrimSuffix(path, ".md"))
	if title != "" {
		fmt.Println("<h1>" + markdown.EscapeHTML(title) + "</h1>")
	}
	fmt.Println(markup)
	return nil
}

// BrowseAction resolves a path the way the app shell would and reports the
// outcome: the resolved view, any status message, and that view's content.
func BrowseAction(c *cli.Context) error {
	logger := newLogger(c)

	path := c.Args().First()
	if path == "" {
		path = "/"
	}

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	res := controller.Navigate(c.Context, path, nil)
	fmt.Printf("%s -> %s (%s", path, res.Path, res.View)
	if res.AccountMode != "" {
		fmt.Printf("/%s", res.AccountMode)
	}
	fmt.Println(")")

	if msg := controller.ConsumeMessage(); msg != "" {
		fmt.Println(msg)
	}

	switch res.View {
	case nav.ViewList:
		printList(controller.VisibleRecipes(), "")
		if msg := controller.EmptyMessage(); msg != "" {
			fmt.Println(msg)
		}
	case nav.ViewDetail:
		if detail := controller.Detail(); detail != nil {
			_, markup := markdown.RenderDocument(detail.Markdown, detail.Metadata.DisplayTitle())
			fmt.Println(markup)
		}
	}
	return nil
}
