package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := credentials(cmd, username, password)
			if err != nil {
				return err
			}
			if err := c.app.Session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", c.app.Session.Snapshot().User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := credentials(cmd, username, password)
			if err != nil {
				return err
			}
			if err := c.app.Session.Register(cmd.Context(), username, password); err != nil {
				return err
			}
			if snap := c.app.Session.Snapshot(); snap.IsAuthenticated {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", snap.User.Username)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, now run `campaign login`\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Authenticate(cmd.Context()); err != nil {
				return err
			}
			c.app.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			snap := c.app.Session.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), snap.User.Username)
			if !snap.Expiry.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "access token expires %s\n", snap.Expiry.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
