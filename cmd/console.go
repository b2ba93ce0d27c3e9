package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"toonzip/config"
	"toonzip/downloader"
	"toonzip/models"
	"toonzip/validation"
)

const promptLabel = "Enter the comic listing URL (empty to quit)"

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer config.CloseLogging()

	if len(args) == 1 {
		return runOnce(cfg, args[0])
	}

	prompt := promptui.Prompt{
		Label: promptLabel,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return nil
			}
			_, err := validation.ValidateListingURL(input)
			return err
		},
	}

	for {
		input, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			fmt.Println("Bye.")
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			fmt.Println("Bye.")
			return nil
		}

		// a failed run is reported and the prompt comes back
		if err := runOnce(cfg, input); err != nil {
			fmt.Println("Error:", err)
		}
	}
}

// runOnce downloads a single comic. Ctrl+C stops the run; episodes already
// in flight finish first.
func runOnce(cfg *config.Config, rawURL string) error {
	listingURL, err := validation.ValidateListingURL(rawURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reporter := newConsoleReporter(os.Stdout)
	manager, err := downloader.NewDefaultManager(cfg, reporter)
	if err != nil {
		return err
	}

	fmt.Println("Starting browser, press Ctrl+C to stop after the current episodes...")
	summary, runErr := manager.Run(ctx, listingURL)
	reporter.Close()

	printSummary(summary)
	if summary.Cancelled {
		return nil
	}
	return runErr
}

func printSummary(s models.RunSummary) {
	if s.Episodes == 0 {
		return
	}

	fmt.Printf("\n%s: %d/%d episodes downloaded, %d skipped, %d images (%s) in %s\n",
		s.Comic.DirName(), s.Completed, s.Episodes, s.Skipped, s.Images, humanBytes(s.Bytes), s.Elapsed.Round(1e9))
	if s.ArchivePath != "" {
		fmt.Println("Archive:", s.ArchivePath)
	}
	if s.Cancelled {
		fmt.Println("Stopped before the end; run again with the same URL to resume.")
	}
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
