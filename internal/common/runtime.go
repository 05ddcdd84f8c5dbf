package common

import (
	"github.com/urfave/cli/v2"

	"github.com/recipesmd/recipesmd/models"
	"github.com/recipesmd/recipesmd/pkg/api"
)

// LoadConfig reads the config file named by the global --config flag and
// applies the --server override.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if server := c.String("server"); server != "" {
		cfg.ServerURL = server
	}
	return cfg, nil
}

// NewClient builds the API client from config.
func NewClient(cfg models.Config) *api.Client {
	return api.NewClient(cfg.ServerURL, cfg.TokenPath())
}
