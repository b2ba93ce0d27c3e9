package cmd

import (
	"github.com/spf13/cobra"

	"toonzip/config"
	"toonzip/ui"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the graphical downloader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer config.CloseLogging()

		ui.Run(cfg, flagConfig)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}
