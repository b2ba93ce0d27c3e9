package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toonzip/config"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the toonzip config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}

		if _, err := os.Stat(path); err == nil && !flagForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		fmt.Println("Config written to", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings (config file merged with flags)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMerged(config.Options{
			ConfigPath:  flagConfig,
			Output:      flagOutput,
			GroupSize:   flagGroupSize,
			Fresh:       flagFresh,
			ConvertJPEG: flagJPEG,
			Debug:       flagDebug,
		})
		if err != nil {
			return err
		}

		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
