package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
	"github.com/aretw0/nexia/pkg/core"
)

var searchScope string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find notes whose title or content contains query",
	Long:  `Case-insensitive substring search. --scope limits it to title or content.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := core.ParseSearchScope(searchScope)
		if err != nil {
			return err
		}
		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		return printNotes(svc.Search(cmd.Context(), args[0], scope))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchScope, "scope", "all", "Search scope (all, title, content)")
}
