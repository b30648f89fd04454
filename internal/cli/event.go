package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record campaign events",
	}

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Append an event to short-term memory",
		Long:  "Append an event to short-term memory. Text can be a positional arg or piped via stdin.",
		RunE:  runEventAdd,
	}
	addCmd.Flags().Bool("check", false, "Run the periodic compression check after recording")

	cmd.AddCommand(addCmd)
	RootCmd.AddCommand(cmd)
}

type eventAddResult struct {
	ShortTerm        int  `json:"short_term_events"`
	Compressed       bool `json:"compressed"`
	CompressionCount int  `json:"compression_count"`
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	check, _ := cmd.Flags().GetBool("check")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else if piped(cmd) {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("event text is required (positional arg or stdin)")
	}

	return withMemory(cmd, func(m *campaignMemory) error {
		if err := m.mem.AddEvent(cmd.Context(), text); err != nil {
			return err
		}
		res := eventAddResult{}
		if check {
			done, err := m.mem.MaybeCompress(cmd.Context())
			if err != nil {
				return err
			}
			res.Compressed = done
		}
		res.ShortTerm = len(m.mem.ShortTerm())
		res.CompressionCount = m.mem.CompressionCount()
		return printJSON(cmd, res)
	})
}

// piped reports whether stdin carries data rather than a terminal.
func piped(cmd *cobra.Command) bool {
	in := cmd.InOrStdin()
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
