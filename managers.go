package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/client"
	"github.com/bonus-distribution/backend/internal/config"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func managersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "managers",
		Short: "Manage the manager registry of the running API at API_URL",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the admin, the current distribution and the authorized managers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := adminClient()
			if err != nil {
				return err
			}

			return listManagers(cmd.Context(), c, cmd.OutOrStdout())
		},
	})

	for _, authorize := range []bool{true, false} {
		use, short := "authorize <address>...", "Authorize managers as the admin"
		if !authorize {
			use, short = "revoke <address>...", "Revoke managers as the admin"
		}

		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				targets, err := parsePrincipals(args)
				if err != nil {
					return err
				}

				c, err := adminClient()
				if err != nil {
					return err
				}

				return setManagers(cmd.Context(), c, targets, authorize)
			},
		})
	}

	return cmd
}

// adminClient creates an API client that acts as the configured admin.
func adminClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	credentials, err := adminCredentials(cfg)
	if err != nil {
		return nil, err
	}

	return client.New(cfg.APIURL, credentials), nil
}

func adminCredentials(cfg config.Config) (client.Credentials, error) {
	if cfg.AuthMode == auth.ModeHeader {
		return client.Principal(cfg.Admin()), nil
	}

	j, err := auth.NewJWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, nil)
	if err != nil {
		return nil, err
	}

	token, err := j.IssueToken(cfg.Admin(), 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return client.Bearer(token), nil
}

func parsePrincipals(args []string) ([]ledger.Principal, error) {
	targets := make([]ledger.Principal, 0, len(args))
	for _, arg := range args {
		p, err := ledger.ParsePrincipal(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		targets = append(targets, p)
	}

	return targets, nil
}

func listManagers(ctx context.Context, c *client.Client, out io.Writer) error {
	admin, err := c.Admin(ctx)
	if err != nil {
		return err
	}

	current, err := c.CurrentDistributionID(ctx)
	if err != nil {
		return err
	}

	managers, err := c.Managers(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "admin: %s\n", admin.Hex())
	fmt.Fprintf(out, "current distribution: %d\n", current)
	fmt.Fprintln(out, "managers:")
	for _, m := range managers {
		fmt.Fprintf(out, "  %s\n", m.Hex())
	}

	return nil
}

// setManagers sets the authorization of every target. Targets that already
// have the requested status are skipped.
func setManagers(ctx context.Context, c *client.Client, targets []ledger.Principal, authorize bool) error {
	for _, p := range targets {
		current, err := c.IsAuthorizedManager(ctx, p)
		if err != nil {
			return err
		}

		if current == authorize {
			log.Info().Str("manager", p.Hex()).Bool("authorized", authorize).Msg("Unchanged")
			continue
		}

		if err := c.SetManagerAuthorization(ctx, p, authorize); err != nil {
			return err
		}

		log.Info().Str("manager", p.Hex()).Bool("authorized", authorize).Msg("Updated")
	}

	return nil
}
