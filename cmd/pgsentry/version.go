package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pgsentry version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgsentry %s\n", Version)
	},
}
