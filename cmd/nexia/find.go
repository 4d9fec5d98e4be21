package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia/pkg/adapters/fs"
)

var findPattern string

var findCmd = &cobra.Command{
	Use:   "find [root]",
	Short: "List notebook files below a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		if _, err := os.Stat(root); err != nil {
			return err
		}
		paths, err := fs.Discover(root, findPattern)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(paths)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVar(&findPattern, "pattern", fs.DefaultPattern, "Doublestar glob pattern")
}
