package cli

import (
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/spf13/cobra"

	"campaign_agent/internal/tools"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tool [name] [arguments-json]",
		Short: "List or call the memory tools offered to the narrative agent",
		Long: `Without arguments, lists the tools the narrative agent can call. With a tool
name, invokes it against the selected campaign's memory, e.g.

  campaign tool campaign_memory '{"view":"player"}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: runTool,
	}

	RootCmd.AddCommand(cmd)
}

type toolDesc struct {
	Name string `json:"name"`
	Desc string `json:"description"`
}

func runTool(cmd *cobra.Command, args []string) error {
	return withMemory(cmd, func(m *campaignMemory) error {
		ctx := cmd.Context()

		var descs []toolDesc
		byName := map[string]tool.InvokableTool{}
		for _, t := range tools.NewMemoryTools(m.mem) {
			info, err := t.Info(ctx)
			if err != nil {
				return err
			}
			descs = append(descs, toolDesc{Name: info.Name, Desc: info.Desc})
			if it, ok := t.(tool.InvokableTool); ok {
				byName[info.Name] = it
			}
		}
		if len(args) == 0 {
			return printJSON(cmd, descs)
		}

		t, ok := byName[args[0]]
		if !ok {
			return fmt.Errorf("unknown tool %q", args[0])
		}
		in := "{}"
		if len(args) == 2 {
			in = args[1]
		}
		out, err := t.InvokableRun(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	})
}
