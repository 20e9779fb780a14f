package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/ops"
)

func init() {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the operations questions are answered with",
		Run:   runCatalog,
	}

	cmd.Flags().Bool("prompt", false, "Print the catalog as the language model sees it")

	RootCmd.AddCommand(cmd)
}

type catalogEntry struct {
	Name     string        `json:"name"`
	Summary  string        `json:"summary"`
	Params   []ops.Param   `json:"params"`
	Examples []ops.Example `json:"examples,omitempty"`
}

func runCatalog(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if prompt, _ := cmd.Flags().GetBool("prompt"); prompt {
		fmt.Fprint(out, ops.Describe())
		return
	}
	if textFormat() {
		t := newTable(out, "Operation", "Required", "Optional", "Summary")
		for _, op := range ops.All() {
			var req, opt []string
			for _, p := range op.Params() {
				if p.Required {
					req = append(req, p.Name)
				} else {
					opt = append(opt, p.Name)
				}
			}
			t.Append([]string{string(op.Name()), strings.Join(req, ", "), strings.Join(opt, ", "), op.Summary()})
		}
		t.Render()
		return
	}

	var entries []catalogEntry
	for _, op := range ops.All() {
		entries = append(entries, catalogEntry{
			Name:     string(op.Name()),
			Summary:  op.Summary(),
			Params:   op.Params(),
			Examples: op.Examples(),
		})
	}
	printJSON(out, entries)
}
