package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/ledger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question about an expense CSV",
		Long: "Answer a question about the expenses in --csv. With --session the question " +
			"sees that conversation's earlier answers and is added to it.",
		Args: cobra.MinimumNArgs(1),
		Run:  runAsk,
	}

	cmd.Flags().String("csv", "", "Expense CSV with date, category, amount and optional notes columns (required)")
	cmd.Flags().StringP("session", "s", "", "Session ID (default: start a new session)")
	cmd.MarkFlagRequired("csv")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	csvPath, _ := cmd.Flags().GetString("csv")
	sessionID, _ := cmd.Flags().GetString("session")
	query := strings.Join(args, " ")
	ctx := cmd.Context()

	cfg := loadConfig()
	log := newLogger()

	table, err := ledger.LoadCSV(ctx, csvPath)
	if err != nil {
		exitErr("load csv", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := newPipeline(ctx, cfg, log, nil)
	if err != nil {
		exitErr("create pipeline", err)
	}

	c := &conversation{store: s, pipeline: p, table: table}
	if err := c.open(ctx, sessionID); err != nil {
		exitErr("open session", err)
	}

	res, err := c.ask(ctx, query)
	printAnswer(cmd.OutOrStdout(), c.sessionID(), res)
	if err != nil {
		exitErr("ask", err)
	}
}
