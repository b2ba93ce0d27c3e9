package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"toonzip/config"
)

var (
	flagConfig    string
	flagOutput    string
	flagGroupSize int
	flagFresh     bool
	flagJPEG      bool
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "toonzip [listing-url]",
	Short: "Download every episode of a comic and pack it into a zip",
	Long: `toonzip opens a comic's listing page in a headless browser, collects every
episode (following the pagination), downloads the images of each episode
into its own folder and finally zips the comic folder.

Without a URL argument it keeps prompting for listing URLs until an empty
line is entered.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runConsole,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/toonzip/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "out", "o", "", "folder that receives the comic folder and archive")
	rootCmd.PersistentFlags().IntVar(&flagGroupSize, "group-size", 0, "episodes downloaded at the same time (default 3)")
	rootCmd.PersistentFlags().BoolVar(&flagFresh, "fresh", false, "delete an existing comic folder instead of resuming it")
	rootCmd.PersistentFlags().BoolVar(&flagJPEG, "jpeg", false, "convert PNG, GIF and WebP images to JPEG")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig starts the log file and merges the config file with the
// command line flags.
func loadConfig() (*config.Config, error) {
	if _, err := config.InitLogging("", flagDebug); err != nil {
		log.Printf("[Log] Log file unavailable, logging to console only: %v", err)
	}

	cfg, err := config.LoadMerged(config.Options{
		ConfigPath:  flagConfig,
		Output:      flagOutput,
		GroupSize:   flagGroupSize,
		Fresh:       flagFresh,
		ConvertJPEG: flagJPEG,
		Debug:       flagDebug,
	})
	if err != nil {
		return nil, err
	}

	config.SetDebug(cfg.Debug)
	config.Debugf("[Config] %+v", *cfg)
	return cfg, nil
}
