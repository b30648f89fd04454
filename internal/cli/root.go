// Package cli implements the campaign CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	dbPath     string
	campaignID string
	debugFlag  bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "campaign",
	Short:         "Campaign memory for a turn-based narrative game",
	Long:          "Records campaign events and folds them into long-term memory with an LLM. SQLite-backed, single binary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: ~/.campaign_agent/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (overrides storage.path)")
	RootCmd.PersistentFlags().StringVarP(&campaignID, "campaign", "c", "", "Campaign ID (default: $CAMPAIGN_ID)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		exitErr(err)
	}
}

func getCampaignID() (string, error) {
	id := campaignID
	if id == "" {
		id = os.Getenv("CAMPAIGN_ID")
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("campaign is required (--campaign or $CAMPAIGN_ID)")
	}
	return strings.TrimSpace(id), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
