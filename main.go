package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/recipesmd/recipesmd/internal/account"
	"github.com/recipesmd/recipesmd/internal/recipes"
	syncer "github.com/recipesmd/recipesmd/internal/sync"
	"github.com/recipesmd/recipesmd/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "recipesmd",
		Usage: "personal recipe manager backed by a markdown recipe server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "override the server URL from config",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "browse",
				Usage:     "resolve an app path and show what it leads to",
				ArgsUsage: "[path]",
				Action:    recipes.BrowseAction,
			},
			{
				Name:      "list",
				Usage:     "list recipes, optionally filtered by facet=value pairs",
				ArgsUsage: "[facet=value ...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "read from the local cache instead of the server"},
					&cli.BoolFlag{Name: "facets", Usage: "print the selectable facet values and time-bucket counts"},
					&cli.StringFlag{Name: "output", Usage: "output format: text (default) or yaml"},
				},
				Action: recipes.ListAction,
			},
			{
				Name:      "show",
				Usage:     "print one recipe by slug",
				ArgsUsage: "<slug>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "read from the local cache instead of the server"},
					&cli.BoolFlag{Name: "html", Usage: "render to markup instead of raw markdown"},
				},
				Action: recipes.ShowAction,
			},
			{
				Name:      "add",
				Usage:     "scrape a recipe from a source URL and save it",
				ArgsUsage: "<url>",
				Action:    recipes.AddAction,
			},
			{
				Name:      "refresh",
				Usage:     "re-scrape a saved recipe from its source URL",
				ArgsUsage: "<slug>",
				Action:    recipes.RefreshAction,
			},
			{
				Name:  "share",
				Usage: "feed a shared page through the share intake flow",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "shared URL"},
					&cli.StringFlag{Name: "title", Usage: "shared title"},
					&cli.StringFlag{Name: "text", Usage: "shared free text (a URL inside it is used when --url is absent)"},
					&cli.BoolFlag{Name: "submit", Usage: "submit the derived URL for scraping immediately"},
				},
				Action: recipes.ShareAction,
			},
			{
				Name:      "render",
				Usage:     "render a local recipe markdown file to markup",
				ArgsUsage: "<file.md>",
				Action:    recipes.RenderAction,
			},
			{
				Name:  "sync",
				Usage: "pull the full collection into the offline cache",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "number of concurrent pulls (default from config)"},
				},
				Action: syncer.SyncAction,
			},
			{
				Name:  "login",
				Usage: "sign in and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}},
				},
				Action: account.LoginAction,
			},
			{
				Name:   "logout",
				Usage:  "end the session",
				Action: account.LogoutAction,
			},
			{
				Name:  "register",
				Usage: "create an account (the first one becomes the admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}},
				},
				Action: account.RegisterAction,
			},
			{
				Name:  "passwd",
				Usage: "change the signed-in user's password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "current password"},
					&cli.StringFlag{Name: "new", Usage: "new password"},
				},
				Action: account.PasswdAction,
			},
			{
				Name:   "whoami",
				Usage:  "print the signed-in user",
				Action: account.WhoamiAction,
			},
			{
				Name:  "quickstart",
				Usage: "print a YAML quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
