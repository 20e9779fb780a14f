package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a session's remembered answers",
		Run:   runHistory,
	}

	cmd.Flags().StringP("session", "s", "", "Session ID (required)")
	cmd.Flags().IntP("limit", "l", 0, "Only the most recent N entries (0 = all)")
	cmd.MarkFlagRequired("session")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if _, err := s.GetSession(cmd.Context(), sessionID); err != nil {
		exitErr("history", err)
	}

	entries, err := s.History(cmd.Context(), store.HistoryParams{SessionID: sessionID, Limit: limit})
	if err != nil {
		exitErr("history", err)
	}

	if textFormat() {
		renderEntries(cmd.OutOrStdout(), entries)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return
	}
	printJSON(cmd.OutOrStdout(), entries)
}
