package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentpipe version %s\n", version.Get())
	},
}
