package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List conversation sessions",
		Run:   runSessions,
	}

	cmd.Flags().IntP("limit", "l", 50, "Max results")
	cmd.Flags().Bool("all", false, "Include cleared sessions")

	RootCmd.AddCommand(cmd)
}

func runSessions(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sessions, err := s.ListSessions(cmd.Context(), store.ListSessionsParams{Limit: limit, IncludeDeleted: all})
	if err != nil {
		exitErr("sessions", err)
	}

	if textFormat() {
		renderSessions(cmd.OutOrStdout(), sessions)
		return
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return
	}
	printJSON(cmd.OutOrStdout(), sessions)
}
