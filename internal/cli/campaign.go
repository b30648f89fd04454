package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"campaign_agent/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Create and list campaigns",
	}

	newCmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Start a new campaign",
		RunE:  runCampaignNew,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns, most recently played first",
		Args:  cobra.NoArgs,
		RunE:  runCampaignList,
	}

	cmd.AddCommand(newCmd, listCmd)
	RootCmd.AddCommand(cmd)
}

func runCampaignNew(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := session.NewSession(cmd.Context(), a.sessions, a.emitter, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printJSON(cmd, sess.Campaign)
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	campaigns, err := a.sessions.ListCampaigns(cmd.Context())
	if err != nil {
		return err
	}
	if campaigns == nil {
		campaigns = []session.Campaign{}
	}
	return printJSON(cmd, campaigns)
}
