package main

import (
	"fmt"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue a bearer token for a principal",
		Long:  "Issue a bearer token for a principal, signed with JWT_SECRET. Tokens are only accepted when AUTH_MODE is jwt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ledger.ParsePrincipal(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			j, err := auth.NewJWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, nil)
			if err != nil {
				return err
			}

			token, err := j.IssueToken(p, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long the token is valid")
	return cmd
}
