package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"toonzip/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the toonzip version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.VersionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
