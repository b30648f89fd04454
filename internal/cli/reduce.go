package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"campaign_agent/internal/chunker"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reduce <file>",
		Short: "Summarize a conversation record file",
		Long: `Chunk a JSON array of {"role","content"} records and reduce it to one summary
through repeated chunk summarization. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runReduce,
	}
	cmd.Flags().Int("chunk-tokens", 0, "Per-chunk token budget (default: memory.chunk_tokens)")

	RootCmd.AddCommand(cmd)
}

func readRecords(cmd *cobra.Command, path string) ([]chunker.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []chunker.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return records, nil
}

func runReduce(cmd *cobra.Command, args []string) error {
	records, err := readRecords(cmd, args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if n, _ := cmd.Flags().GetInt("chunk-tokens"); n > 0 {
		a.cfg.Memory.ChunkTokens = n
	}
	s, err := a.summarizer()
	if err != nil {
		return err
	}
	out, err := s.Reduce(cmd.Context(), records)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
