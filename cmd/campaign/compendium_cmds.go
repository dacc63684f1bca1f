package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/campaign-tracker/compendium"
	"github.com/spf13/cobra"
)

func newCompendiumCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compendium",
		Aliases: []string{"c"},
		Short:   "Read and write compendium notes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.requireSession(cmd.Context())
		},
	}
	cmd.AddCommand(
		newCompendiumListCmd(c),
		newCompendiumShowCmd(c),
		newCompendiumAddCmd(c),
		newCompendiumEditCmd(c),
		newCompendiumRemoveCmd(c),
	)
	return cmd
}

func newCompendiumListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Compendium.Load(cmd.Context()); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tTITLE\tTAGS")
			for _, e := range c.app.Compendium.Entries() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Slug, e.Title, e.TagString())
			}
			return w.Flush()
		},
	}
}

func newCompendiumShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Print a note with its wiki links resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.app.Compendium.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", entry.Title)
			if len(entry.Tags) > 0 {
				fmt.Fprintf(out, "tags: %s\n", entry.TagString())
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, strings.TrimSpace(entry.LinkedBody()))
			return nil
		},
	}
}

func newCompendiumAddCmd(c *cli) *cobra.Command {
	var draft compendium.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := c.app.Compendium.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", entry.Slug, entry.ID)
			return nil
		},
	}
	bindCompendiumDraft(cmd, &draft)
	return cmd
}

func newCompendiumEditCmd(c *cli) *cobra.Command {
	var draft compendium.Draft
	cmd := &cobra.Command{
		Use:   "edit <id|slug>",
		Short: "Change a note, keeping fields that are not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := c.app.Compendium.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("title") {
				draft.Title = current.Title
			}
			if !flags.Changed("tags") {
				draft.Tags = current.TagString()
			}
			if !flags.Changed("body") {
				draft.Body = current.Body
			}
			if err := c.app.Compendium.Update(cmd.Context(), current.ID, draft); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", current.ID)
			return nil
		},
	}
	bindCompendiumDraft(cmd, &draft)
	return cmd
}

func newCompendiumRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|slug>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.app.Compendium.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.app.Compendium.Delete(cmd.Context(), entry.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", entry.Title)
			return nil
		},
	}
}

func bindCompendiumDraft(cmd *cobra.Command, draft *compendium.Draft) {
	cmd.Flags().StringVarP(&draft.Title, "title", "t", "", "note title")
	cmd.Flags().StringVar(&draft.Tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVarP(&draft.Body, "body", "b", "", "markdown body, [[Title|slug]] links to other notes")
}
