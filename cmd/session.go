package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/storefront"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Store or drop the session handed over by the auth service",
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a session token for an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		token, _ := cmd.Flags().GetString("token")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			sess := models.Session{Email: email, Token: token, ExpiresAt: sf.Sessions.Now().Add(ttl)}
			if err := sf.Sessions.Save(ctx, sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n", email, sess.ExpiresAt.Format(time.RFC3339))
			return nil
		})
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.Sessions.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			sess, ok := sf.Sessions.Current(ctx)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (expires %s)\n", sess.Email, sess.ExpiresAt.Format(time.RFC3339))
			return nil
		})
	},
}

func init() {
	sessionLoginCmd.Flags().String("email", "", "Account email")
	sessionLoginCmd.Flags().String("token", "", "Session token from the auth service")
	sessionLoginCmd.Flags().Duration("ttl", 24*time.Hour, "Session lifetime")
	_ = sessionLoginCmd.MarkFlagRequired("email")
	_ = sessionLoginCmd.MarkFlagRequired("token")
	sessionCmd.AddCommand(sessionLoginCmd, sessionLogoutCmd, sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
