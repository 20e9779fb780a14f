package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	path := getDBPath()
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), path)
	if err != nil {
		exitErr("stats", err)
	}

	if !textFormat() {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Fprintf(out, "sessions: %d active / %d total\n", stats.ActiveSessions, stats.TotalSessions)
	fmt.Fprintf(out, "entries:  %d active / %d total\n\n", stats.ActiveEntries, stats.TotalEntries)

	t := newTable(out, "Route", "Entries")
	for _, r := range stats.Routes {
		t.Append([]string{r.Route, fmt.Sprint(r.Count)})
	}
	t.Render()

	t = newTable(out, "Operation", "Entries", "Sessions")
	for _, op := range stats.Operations {
		t.Append([]string{op.Operation, fmt.Sprint(op.Count), fmt.Sprint(op.Sessions)})
	}
	t.Render()
}
