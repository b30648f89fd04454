package cli

import (
	"github.com/spf13/cobra"

	"campaign_agent/internal/memory"
	"campaign_agent/internal/session"
	"campaign_agent/internal/tokens"
)

type campaignMemory struct {
	sess *session.Session
	mem  *memory.Store
	est  tokens.Estimator
}

// withMemory opens the app and the selected campaign's memory for fn.
func withMemory(cmd *cobra.Command, fn func(*campaignMemory) error) error {
	id, err := getCampaignID()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sess, mem, err := a.openMemory(cmd.Context(), id)
	if err != nil {
		return err
	}
	return fn(&campaignMemory{sess: sess, mem: mem, est: a.est})
}
