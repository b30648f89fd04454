package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campaign_agent/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and compress campaign memory",
	}

	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the full memory document given to the narrator",
		Args:  cobra.NoArgs,
		RunE:  runMemoryContext,
	}
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print what the players know so far",
		Args:  cobra.NoArgs,
		RunE:  runMemorySummary,
	}
	compressCmd := &cobra.Command{
		Use:   "compress",
		Short: "Fold short-term events into long-term memory",
		Long:  "Ask the oracle whether the short-term log is worth compressing and compress when it agrees. --force skips the question.",
		Args:  cobra.NoArgs,
		RunE:  runMemoryCompress,
	}
	compressCmd.Flags().Bool("force", false, "Compress without consulting the cutoff advisor")
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics and compression history",
		Args:  cobra.NoArgs,
		RunE:  runMemoryStats,
	}

	cmd.AddCommand(contextCmd, summaryCmd, compressCmd, statsCmd)
	RootCmd.AddCommand(cmd)
}

func runMemoryContext(cmd *cobra.Command, args []string) error {
	return withMemory(cmd, func(m *campaignMemory) error {
		fmt.Fprint(cmd.OutOrStdout(), m.mem.FullContext())
		return nil
	})
}

func runMemorySummary(cmd *cobra.Command, args []string) error {
	return withMemory(cmd, func(m *campaignMemory) error {
		fmt.Fprintln(cmd.OutOrStdout(), m.mem.PlayerSummary())
		return nil
	})
}

type compressResult struct {
	Compressed       bool `json:"compressed"`
	CompressionCount int  `json:"compression_count"`
	ShortTerm        int  `json:"short_term_events"`
}

func runMemoryCompress(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	return withMemory(cmd, func(m *campaignMemory) error {
		var (
			done bool
			err  error
		)
		if force {
			done, err = m.mem.Compress(cmd.Context())
		} else {
			done, err = m.mem.MaybeCompress(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, compressResult{
			Compressed:       done,
			CompressionCount: m.mem.CompressionCount(),
			ShortTerm:        len(m.mem.ShortTerm()),
		})
	})
}

type memoryStats struct {
	Campaign         session.Campaign            `json:"campaign"`
	ShortTerm        int                         `json:"short_term_events"`
	ShortTermTokens  int                         `json:"short_term_tokens"`
	LongTermTokens   int                         `json:"long_term_tokens"`
	CompressionCount int                         `json:"compression_count"`
	LastCompression  *time.Time                  `json:"last_compression"`
	Compressions     []session.CompressionRecord `json:"compressions"`
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	return withMemory(cmd, func(m *campaignMemory) error {
		history, err := m.sess.Compressions(cmd.Context())
		if err != nil {
			return err
		}
		if history == nil {
			history = []session.CompressionRecord{}
		}
		stats := memoryStats{
			Campaign:         m.sess.Campaign,
			LongTermTokens:   m.est.Estimate(m.mem.LongTerm()),
			CompressionCount: m.mem.CompressionCount(),
			LastCompression:  m.mem.LastCompression(),
			Compressions:     history,
		}
		for _, e := range m.mem.ShortTerm() {
			stats.ShortTerm++
			stats.ShortTermTokens += m.est.Estimate(e)
		}
		return printJSON(cmd, stats)
	})
}
