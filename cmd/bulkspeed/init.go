package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bulkspeed/bulkspeed/internal/config"
)

const exampleConfig = `# bulkspeed configuration
api_key: ${PAGESPEED_API_KEY}

devices:
  - mobile
  - desktop

# Pause between consecutive requests.
delay: 1s

# Extra attempts on HTTP 429/500/502/503/504, with doubling backoff.
retries: 2

output: pagespeed_results.csv

# Optional: announce finished runs via shoutrrr URLs.
# notify:
#   template: "Audit done: {{ .Total }} checks, {{ .Failed }} failed"
#   services:
#     - telegram://${TELEGRAM_TOKEN}@telegram?chats=${TELEGRAM_CHAT_ID}

# Optional: schedule for 'bulkspeed start'.
# schedule:
#   cron: "0 6 * * *"
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config to the default path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPaths()[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
