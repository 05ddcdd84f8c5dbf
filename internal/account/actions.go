// Package account holds the CLI actions for sessions and accounts.
package account

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/recipesmd/recipesmd/internal/app"
	"github.com/recipesmd/recipesmd/internal/common"
	"github.com/recipesmd/recipesmd/pkg/api"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// credentials returns the username and password from flags, prompting on
// stdin for whichever is missing.
func credentials(c *cli.Context) (string, string, error) {
	username := c.String("username")
	password := c.String("password")
	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
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

// LoginAction signs in and persists the session token.
func LoginAction(c *cli.Context) error {
	logger := newLogger(c)

	username, password, err := credentials(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	if err := controller.SignIn(c.Context, username, password); err != nil {
		fmt.Println(controller.ConsumeMessage())
		os.Exit(1)
	}
	controller.ConsumeMessage()
	fmt.Printf("Signed in as %s.\n", username)
	return nil
}

// LogoutAction ends the session and clears the persisted token.
func LogoutAction(c *cli.Context) error {
	logger := newLogger(c)

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	if err := controller.SignOut(c.Context); err != nil {
		fmt.Println(controller.ConsumeMessage())
		os.Exit(1)
	}
	fmt.Println(controller.ConsumeMessage())
	return nil
}

// RegisterAction creates an account. The first account needs no session and
// becomes the admin; afterwards registration requires an admin session.
func RegisterAction(c *cli.Context) error {
	logger := newLogger(c)

	username, password, err := credentials(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	controller, err := newController(c, logger)
	if err != nil {
		logger.Error("failed to reach server", "error", err)
		os.Exit(2)
	}

	if err := controller.RegisterAccount(c.Context, username, password); err != nil {
		fmt.Println(controller.ConsumeMessage())
		os.Exit(1)
	}
	fmt.Println(controller.ConsumeMessage())
	return nil
}

// PasswdAction rotates the signed-in user's password.
func PasswdAction(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	client := common.NewClient(cfg)

	current := c.String("current")
	next := c.String("new")
	reader := bufio.NewReader(os.Stdin)
	if current == "" {
		fmt.Fprint(os.Stderr, "Current password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: failed to read password")
			os.Exit(1)
		}
		current = strings.TrimSpace(line)
	}
	if next == "" {
		fmt.Fprint(os.Stderr, "New password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: failed to read password")
			os.Exit(1)
		}
		next = strings.TrimSpace(line)
	}

	if err := client.ChangePassword(c.Context, current, next); err != nil {
		var statusErr *api.StatusError
		switch {
		case errors.Is(err, api.ErrUnauthenticated):
			fmt.Println(app.MsgSessionExpired)
		case errors.As(err, &statusErr) && statusErr.Detail != "":
			fmt.Println(statusErr.Detail)
		default:
			logger.Error("failed to change password", "error", err)
			fmt.Println(app.MsgConnectivity)
		}
		os.Exit(1)
	}
	fmt.Println("Password updated.")
	return nil
}

// WhoamiAction prints the signed-in user.
func WhoamiAction(c *cli.Context) error {
	logger := newLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	client := common.NewClient(cfg)

	user, err := client.Me(c.Context)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Println("Not signed in.")
			os.Exit(1)
		}
		logger.Error("failed to load session", "error", err)
		os.Exit(2)
	}

	role := "member"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Printf("%s (%s)\n", user.Username, role)
	return nil
}
