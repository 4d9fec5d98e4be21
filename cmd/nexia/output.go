package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/schema"
)

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// printNotes prints one line per note, or the note records with --json.
func printNotes(notes []core.Note) error {
	if jsonOutput {
		records := make([]schema.NoteRecord, len(notes))
		for i, n := range notes {
			records[i] = schema.FromNote(n)
		}
		return printJSON(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%d links\n", n.ID, n.Title, len(n.Links))
	}
	return w.Flush()
}

// printNote prints a note with its metadata header followed by its content.
func printNote(n core.Note, backlinks []core.Note) error {
	if jsonOutput {
		return printJSON(schema.FromNote(n))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 1, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", n.ID)
	fmt.Fprintf(w, "title:\t%s\n", n.Title)
	fmt.Fprintf(w, "created:\t%s\n", n.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "modified:\t%s\n", n.ModifiedAt.Local().Format(time.DateTime))
	if n.Position != nil {
		fmt.Fprintf(w, "position:\t%g,%g\n", n.Position.X, n.Position.Y)
	}
	if n.Size != nil {
		fmt.Fprintf(w, "size:\t%gx%g\n", n.Size.Width, n.Size.Height)
	}
	if n.Prototype != nil {
		fmt.Fprintf(w, "prototype:\t%s\n", n.Prototype)
	}
	for _, id := range n.Links {
		fmt.Fprintf(w, "links to:\t%s\n", id)
	}
	for _, b := range backlinks {
		fmt.Fprintf(w, "linked from:\t%s %s\n", b.ID, b.Title)
	}
	for _, key := range slices.Sorted(maps.Keys(n.Attributes)) {
		fmt.Fprintf(w, "%s:\t%s\n", key, formatValue(n.Attributes[key]))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if n.Content != "" {
		fmt.Println()
		fmt.Print(n.Content)
		if !strings.HasSuffix(n.Content, "\n") {
			fmt.Println()
		}
	}
	return nil
}

func formatValue(v core.Value) string {
	data, err := json.Marshal(v.Any())
	if err != nil {
		return fmt.Sprintf("%v", v.Any())
	}
	return string(data)
}
