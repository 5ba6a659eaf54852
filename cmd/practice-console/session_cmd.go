package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the stored provider session",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Store a token pair obtained from the provider login",
		RunE: func(cmd *cobra.Command, args []string) error {
			access, _ := cmd.Flags().GetString("access")
			refresh, _ := cmd.Flags().GetString("refresh")
			userJSON, _ := cmd.Flags().GetString("user")

			var user map[string]any
			if userJSON != "" {
				if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
					return fmt.Errorf("--user must be a JSON object: %w", err)
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sessions.Import(ctx, access, refresh, user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "session stored")
				return nil
			})
		},
	}
	importCmd.Flags().String("access", "", "access token")
	importCmd.Flags().String("refresh", "", "refresh token")
	importCmd.Flags().String("user", "", "user profile as a JSON object")
	importCmd.MarkFlagRequired("refresh")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Refresh and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tok, err := a.sessions.AccessToken(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}

	cmd.AddCommand(importCmd, logoutCmd, tokenCmd)
	return cmd
}
