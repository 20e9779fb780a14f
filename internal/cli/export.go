package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export remembered answers",
		Long:  "Export memory entries as JSON (importable) or as a markdown transcript. Filter by session with -s.",
		Run:   runExport,
	}

	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().String("as", "json", "Export format: json or markdown")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session")
	as, _ := cmd.Flags().GetString("as")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.ExportAll(cmd.Context(), sessionID)
	if err != nil {
		exitErr("export", err)
	}

	switch as {
	case "json":
		if entries == nil {
			entries = []model.MemoryEntry{}
		}
		printJSON(cmd.OutOrStdout(), entries)
	case "markdown", "md":
		writeMarkdown(cmd.OutOrStdout(), entries)
	default:
		exitErr("export", fmt.Errorf("unknown format %q (use json or markdown)", as))
	}
}

// writeMarkdown renders entries as a transcript grouped by session.
func writeMarkdown(w io.Writer, entries []model.MemoryEntry) {
	fmt.Fprintln(w, "# Expense assistant history")
	current := ""
	for _, e := range entries {
		if e.SessionID != current {
			current = e.SessionID
			fmt.Fprintf(w, "\n## Session %s\n", current)
		}
		fmt.Fprintf(w, "\n### %d. %s\n\n", e.Seq, e.Query)
		fmt.Fprintf(w, "_%s · `%s` · %s_\n\n", e.CreatedAt.UTC().Format("2006-01-02 15:04"), e.Operation, e.ArgumentsJSON())
		fmt.Fprintln(w, e.Answer)
	}
}
