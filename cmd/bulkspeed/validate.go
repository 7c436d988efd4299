package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulkspeed/bulkspeed/internal/config"
	"github.com/bulkspeed/bulkspeed/internal/runner"
	"github.com/bulkspeed/bulkspeed/internal/urls"
)

var validateCmd = &cobra.Command{
	Use:   "validate [urls.txt]",
	Short: "Validate the configuration and, optionally, a URL list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		fmt.Println("✓ config valid")
		if retries := cfg.MaxRetries(); retries > 6 {
			fmt.Printf("  warning: retries=%d means waits up to %s per task (backoff doubles without a cap)\n",
				retries, finalBackoff(retries))
		}

		if len(args) == 1 {
			list, err := urls.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ %d unique, valid URLs in %s\n", len(list), args[0])
			if show, _ := cmd.Flags().GetBool("list"); show {
				for _, u := range list {
					fmt.Println("  " + u)
				}
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("list", false, "print the normalized URL list")
	rootCmd.AddCommand(validateCmd)
}

// finalBackoff is the wait before the last retry: InitialBackoff doubled
// retries-1 times.
func finalBackoff(retries int) time.Duration {
	d := runner.InitialBackoff
	for i := 1; i < retries; i++ {
		d *= 2
	}
	return d
}
