package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/campaign-tracker/journal"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newJournalCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"j"},
		Short:   "Read and write journal entries",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.requireSession(cmd.Context())
		},
	}
	cmd.AddCommand(
		newJournalListCmd(c),
		newJournalAddCmd(c),
		newJournalEditCmd(c),
		newJournalRemoveCmd(c),
	)
	return cmd
}

func newJournalListCmd(c *cli) *cobra.Command {
	var previewLength int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, latest day first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Journal.Load(cmd.Context()); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tID\tTITLE\tPREVIEW")
			for _, e := range c.app.Journal.Entries() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Day, e.ID, e.Title, e.Preview(previewLength))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&previewLength, "preview", 60, "preview length in characters")
	return cmd
}

func newJournalAddCmd(c *cli) *cobra.Command {
	var draft journal.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := c.app.Journal.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", entry.ID)
			return nil
		},
	}
	bindJournalDraft(cmd, &draft)
	return cmd
}

func newJournalEditCmd(c *cli) *cobra.Command {
	var draft journal.Draft
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry, keeping fields that are not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := c.app.Journal.Load(cmd.Context()); err != nil {
				return err
			}
			current, ok := c.app.Journal.Get(id)
			if !ok {
				return errors.Errorf("no journal entry %q", id)
			}
			flags := cmd.Flags()
			if !flags.Changed("title") {
				draft.Title = current.Title
			}
			if !flags.Changed("day") {
				draft.Day = current.Day
			}
			if !flags.Changed("body") {
				draft.Body = current.Body
			}
			if err := c.app.Journal.Update(cmd.Context(), id, draft); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id)
			return nil
		},
	}
	bindJournalDraft(cmd, &draft)
	return cmd
}

func newJournalRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Journal.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func bindJournalDraft(cmd *cobra.Command, draft *journal.Draft) {
	cmd.Flags().StringVarP(&draft.Title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&draft.Day, "day", "d", "", "in-game day number")
	cmd.Flags().StringVarP(&draft.Body, "body", "b", "", "markdown body")
}
