package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/metrics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation about an expense CSV",
		Long: "Read questions from stdin, one per line, and answer each in the same session. " +
			"Type exit or quit (or send EOF) to stop.",
		Run: runChat,
	}

	cmd.Flags().String("csv", "", "Expense CSV with date, category, amount and optional notes columns (required)")
	cmd.Flags().StringP("session", "s", "", "Session ID to continue (default: start a new session)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.MarkFlagRequired("csv")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	csvPath, _ := cmd.Flags().GetString("csv")
	sessionID, _ := cmd.Flags().GetString("session")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

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

	var m *metrics.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		errCh := startMetricsServer(ctx, log, metricsAddr, reg, 5*time.Second)
		go func() {
			if err, ok := <-errCh; ok && err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	p, err := newPipeline(ctx, cfg, log, m)
	if err != nil {
		exitErr("create pipeline", err)
	}

	c := &conversation{store: s, pipeline: p, table: table}
	if err := c.open(ctx, sessionID); err != nil {
		exitErr("open session", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (%d rows, %d categories, %d remembered answers)\n",
		c.sessionID(), table.Len(), len(table.Categories()), c.memory.Len())

	if err := chatLoop(ctx, cmd.InOrStdin(), out, c); err != nil {
		exitErr("chat", err)
	}
}

// chatLoop answers one question per input line until exit, quit or EOF.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, c *conversation) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := c.ask(ctx, query)
		printAnswer(out, c.sessionID(), res)
		if err != nil {
			return err
		}
	}
}

func startMetricsServer(ctx context.Context, log *slog.Logger, addr string, gatherer prometheus.Gatherer, shutdownTimeout time.Duration) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			errCh <- err
			return
		}
		defer listener.Close()

		log.Info("prometheus metrics server listening", "address", listener.Addr().String())

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		httpSrv := &http.Server{Handler: mux}

		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = httpSrv.Shutdown(sctx)
		}()

		err = httpSrv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		if err != nil {
			errCh <- err
		}
	}()

	return errCh
}
