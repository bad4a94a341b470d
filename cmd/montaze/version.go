package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the montaze version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("montaze %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
