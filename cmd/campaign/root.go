package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrsteele09/campaign-tracker/internal/app"
	"github.com/jrsteele09/campaign-tracker/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cli carries the state shared by every subcommand.
type cli struct {
	root       *cobra.Command
	configFile string
	app        *app.App
}

func newCLI() *cli {
	c := &cli{}
	c.root = &cobra.Command{
		Use:           "campaign",
		Short:         "Keep a campaign journal and compendium from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipApp"] == "true" {
				return nil
			}
			return c.setup(cmd)
		},
	}

	flags := c.root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default campaign.yaml in . or the user config dir)")
	flags.String("api-url", "", "base URL of the campaign API")
	flags.String("profile", "", "credential profile name")
	flags.String("token-store", "", "where to keep credentials: memory, file or redis")
	flags.String("token-file", "", "credentials file for the file store")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	c.root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newJournalCmd(c),
		newCompendiumCmd(c),
		newVersionCmd(),
	)
	return c
}

// Execute runs the command line and releases the app whether or not the
// command succeeded.
func (c *cli) Execute(ctx context.Context) (err error) {
	defer func() {
		if c.app == nil {
			return
		}
		if closeErr := c.app.Close(); err == nil {
			err = closeErr
		}
		c.app = nil
	}()
	return c.root.ExecuteContext(ctx)
}

func (c *cli) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	opts := []config.Option{
		config.WithDefaults(map[string]any{"token_store": config.StoreFile}),
		config.WithFlag("api_url", flags.Lookup("api-url")),
		config.WithFlag("profile", flags.Lookup("profile")),
		config.WithFlag("token_store", flags.Lookup("token-store")),
		config.WithFlag("token_file", flags.Lookup("token-file")),
		config.WithFlag("log_level", flags.Lookup("log-level")),
	}
	if c.configFile != "" {
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, app.WithLogOutput(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	log.Logger = a.Logger
	c.app = a
	return nil
}

// requireSession restores the stored session or explains how to get one.
func (c *cli) requireSession(ctx context.Context) error {
	return c.app.RequireSession(ctx)
}

// credentials returns the username and password from flags, prompting on
// stdin for whatever is missing.
func credentials(cmd *cobra.Command, username, password string) (string, string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	var err error
	if username == "" {
		if username, err = prompt(cmd.OutOrStdout(), reader, "Username: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = promptPassword(cmd, reader); err != nil {
			return "", "", err
		}
	}
	return username, password, nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword turns echo off when stdin is a terminal.
func promptPassword(cmd *cobra.Command, r *bufio.Reader) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(cmd.OutOrStdout(), r, "Password: ")
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(password), nil
}
