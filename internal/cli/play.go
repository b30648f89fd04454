package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campaign_agent/pkg/logger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Record turns from stdin, compressing memory as the story grows",
		Long: `Reads one event per line from stdin. After every event the cutoff advisor
decides whether the short-term log should be folded into long-term memory.

Lines starting with a slash are commands:
  /context   print the full memory document
  /summary   print the player summary
  /compress  compress now
  /quit      stop`,
		Args: cobra.NoArgs,
		RunE: runPlay,
	}

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	return withMemory(cmd, func(m *campaignMemory) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			switch line {
			case "":
				continue
			case "/quit":
				return nil
			case "/context":
				fmt.Fprint(out, m.mem.FullContext())
				continue
			case "/summary":
				fmt.Fprintln(out, m.mem.PlayerSummary())
				continue
			case "/compress":
				if done, err := m.mem.Compress(ctx); err != nil {
					logger.Warnf("[play] compression failed: %v", err)
				} else if done {
					fmt.Fprintf(out, "memory compressed (#%d)\n", m.mem.CompressionCount())
				}
				continue
			}

			if err := m.mem.AddEvent(ctx, line); err != nil {
				logger.Warnf("[play] event kept in memory but not saved: %v", err)
			}
			done, err := m.mem.MaybeCompress(ctx)
			if err != nil {
				logger.Warnf("[play] compression failed, events kept: %v", err)
				continue
			}
			if done {
				fmt.Fprintf(out, "memory compressed (#%d)\n", m.mem.CompressionCount())
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read turns: %w", err)
		}
		return m.mem.Save(ctx)
	})
}
