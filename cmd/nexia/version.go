package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nexia",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nexia version %s\n", nexia.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
