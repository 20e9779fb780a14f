package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget a session's memory",
		Run:   runClear,
	}

	cmd.Flags().StringP("session", "s", "", "Session ID (required)")
	cmd.Flags().Bool("hard", false, "Permanent delete (irreversible)")
	cmd.MarkFlagRequired("session")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session")
	hard, _ := cmd.Flags().GetBool("hard")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if _, err := s.GetSession(cmd.Context(), sessionID); err != nil {
		exitErr("clear", err)
	}

	n, err := s.Clear(cmd.Context(), store.ClearParams{SessionID: sessionID, Hard: hard})
	if err != nil {
		exitErr("clear", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"session":%q,"cleared":%d}`+"\n", sessionID, n)
}
