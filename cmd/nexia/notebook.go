package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
)

var (
	newName    string
	newAcyclic bool
)

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create a notebook",
	Long: `Create an empty notebook at path. The adapter is inferred from the
extension (.json, .yaml, .db, .badger) unless --adapter is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("notebook %s already exists", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		opts := append(baseOptions(),
			nexia.WithAutoInit(true),
			nexia.WithName(newName),
		)
		if newAcyclic {
			opts = append(opts, nexia.WithAcyclicLinks(true))
		}
		svc, err := nexia.New(path, opts...)
		if err != nil {
			return fmt.Errorf("failed to create notebook: %w", err)
		}

		info := svc.Info(cmd.Context())
		if jsonOutput {
			return printJSON(info)
		}
		fmt.Printf("Created notebook %q at %s\n", info.Name, info.Path)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show notebook details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		info := svc.Info(cmd.Context())
		if jsonOutput {
			return printJSON(info)
		}
		fmt.Printf("name:     %s\n", info.Name)
		fmt.Printf("path:     %s\n", info.Path)
		fmt.Printf("notes:    %d\n", info.Notes)
		fmt.Printf("acyclic:  %t\n", info.Acyclic)
		fmt.Printf("modified: %s\n", info.ModifiedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <name>",
	Short: "Rename the notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		if err := svc.RenameNotebook(ctx, args[0]); err != nil {
			return err
		}
		return save(ctx, svc, "rename notebook to "+args[0])
	},
}

func init() {
	rootCmd.AddCommand(newCmd, infoCmd, renameCmd)
	newCmd.Flags().StringVar(&newName, "name", "", "Notebook name (defaults to the file name)")
	newCmd.Flags().BoolVar(&newAcyclic, "acyclic", false, "Reject links that would close a cycle")
}

