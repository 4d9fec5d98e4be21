package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
)

var linkCmd = &cobra.Command{
	Use:   "link <from> <to>",
	Short: "Link one note to another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		from, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		to, err := resolveID(ctx, svc, args[1])
		if err != nil {
			return err
		}
		if err := svc.LinkNotes(ctx, from, to); err != nil {
			return err
		}
		return save(ctx, svc, fmt.Sprintf("link %s to %s", from, to))
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <from> <to>",
	Short: "Remove a link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		from, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		// The target may already be gone, so only a full id is accepted when
		// no note matches.
		to, err := resolveID(ctx, svc, args[1])
		if err != nil {
			to = args[1]
		}
		if err := svc.UnlinkNotes(ctx, from, to); err != nil {
			return err
		}
		return save(ctx, svc, fmt.Sprintf("unlink %s from %s", from, to))
	},
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks <id>",
	Short: "List the notes linking to a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		back, err := svc.Backlinks(ctx, id)
		if err != nil {
			return err
		}
		return printNotes(back)
	},
}

var suggestApply bool

var suggestCmd = &cobra.Command{
	Use:   "suggest <id>",
	Short: "List notes mentioned by title but not linked yet",
	Long: `Scan the content of a note for the titles of other notes (whole words,
case-insensitive) and list those it does not link to. With --apply the links
are created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		suggestions, err := svc.SuggestLinks(ctx, id)
		if err != nil {
			return err
		}
		if suggestApply && len(suggestions) > 0 {
			for _, n := range suggestions {
				if err := svc.LinkNotes(ctx, id, n.ID.String()); err != nil {
					return err
				}
			}
			if err := save(ctx, svc, fmt.Sprintf("link %d mentioned notes from %s", len(suggestions), id)); err != nil {
				return err
			}
		}
		return printNotes(suggestions)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd, unlinkCmd, backlinksCmd, suggestCmd)
	suggestCmd.Flags().BoolVar(&suggestApply, "apply", false, "Create the suggested links")
}
