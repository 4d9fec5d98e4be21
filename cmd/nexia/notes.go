package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
	"github.com/aretw0/nexia/pkg/core"
)

// resolveID accepts a full note id or an unambiguous prefix of one.
func resolveID(ctx context.Context, svc *core.Service, arg string) (string, error) {
	if _, err := core.ParseNoteID(arg); err == nil {
		return arg, nil
	}
	if len(arg) < 4 {
		return "", fmt.Errorf("%w: %q (use at least 4 characters)", core.ErrInvalidNoteID, arg)
	}
	var match string
	for _, n := range svc.ListNotes(ctx) {
		id := n.ID.String()
		if !strings.HasPrefix(id, strings.ToLower(arg)) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("note id prefix %q is ambiguous", arg)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", core.ErrNoteNotFound, arg)
	}
	return match, nil
}

var addContent string

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		n, err := svc.CreateNote(ctx, args[0])
		if err != nil {
			return err
		}
		if addContent != "" {
			if n, err = svc.UpdateContent(ctx, n.ID.String(), addContent); err != nil {
				return err
			}
		}
		if err := save(ctx, svc, "add note "+n.Title); err != nil {
			return err
		}
		if jsonOutput {
			return printNote(n, nil)
		}
		fmt.Println(n.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a note with its links and backlinks",
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
		n, err := svc.GetNote(ctx, id)
		if err != nil {
			return err
		}
		back, err := svc.Backlinks(ctx, id)
		if err != nil {
			return err
		}
		return printNote(n, back)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		return printNotes(svc.ListNotes(cmd.Context()))
	},
}

var titleCmd = &cobra.Command{
	Use:   "title <id> <title>",
	Short: "Change the title of a note",
	Args:  cobra.ExactArgs(2),
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
		if _, err := svc.UpdateTitle(ctx, id, args[1]); err != nil {
			return err
		}
		return save(ctx, svc, "retitle note "+args[1])
	},
}

var (
	editContent   string
	editStdin     bool
	editPosition  string
	editSize      string
	editPrototype string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit the content or layout of a note",
	Long: `Edit a note. Content comes from --content or, with --stdin, from standard
input. --pos x,y and --size w,h place the note on the canvas; pass "none" to
clear them. --prototype sets the note this one inherits from ("none" clears).`,
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

		changed := false
		if editStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			editContent = string(data)
		}
		if editStdin || cmd.Flags().Changed("content") {
			if _, err := svc.UpdateContent(ctx, id, editContent); err != nil {
				return err
			}
			changed = true
		}
		if cmd.Flags().Changed("pos") {
			var p *core.Point2D
			if editPosition != "none" {
				x, y, err := parsePair(editPosition)
				if err != nil {
					return fmt.Errorf("invalid --pos: %w", err)
				}
				p = &core.Point2D{X: x, Y: y}
			}
			if _, err := svc.SetPosition(ctx, id, p); err != nil {
				return err
			}
			changed = true
		}
		if cmd.Flags().Changed("size") {
			var s *core.Size
			if editSize != "none" {
				w, h, err := parsePair(editSize)
				if err != nil {
					return fmt.Errorf("invalid --size: %w", err)
				}
				s = &core.Size{Width: w, Height: h}
			}
			if _, err := svc.SetSize(ctx, id, s); err != nil {
				return err
			}
			changed = true
		}
		if cmd.Flags().Changed("prototype") {
			proto := ""
			if editPrototype != "none" {
				if proto, err = resolveID(ctx, svc, editPrototype); err != nil {
					return err
				}
			}
			if _, err := svc.SetPrototype(ctx, id, proto); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return errors.New("nothing to edit; use --content, --stdin, --pos, --size or --prototype")
		}
		return save(ctx, svc, "edit note "+id)
	},
}

func parsePair(s string) (float64, float64, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected two comma separated numbers, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a note and every link pointing at it",
	Args:    cobra.ExactArgs(1),
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
		n, err := svc.DeleteNote(ctx, id)
		if err != nil {
			return err
		}
		if err := save(ctx, svc, "delete note "+n.Title); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("Deleted %s %s\n", n.ID, n.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd, showCmd, listCmd, titleCmd, editCmd, rmCmd)

	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Note content")

	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New content")
	editCmd.Flags().BoolVar(&editStdin, "stdin", false, "Read new content from stdin")
	editCmd.Flags().StringVar(&editPosition, "pos", "", "Canvas position as x,y")
	editCmd.Flags().StringVar(&editSize, "size", "", "Canvas size as w,h")
	editCmd.Flags().StringVar(&editPrototype, "prototype", "", "Prototype note id")
}
