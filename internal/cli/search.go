package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search remembered answers by keyword",
		Long:  "Search past questions and answers for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().String("operation", "", "Filter by operation")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session")
	operation, _ := cmd.Flags().GetString("operation")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		SessionID: sessionID,
		Query:     query,
		Operation: operation,
		Limit:     limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if textFormat() {
		renderEntries(cmd.OutOrStdout(), results)
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return
	}
	printJSON(cmd.OutOrStdout(), results)
}
