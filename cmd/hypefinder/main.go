package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hypefinder",
		Short:         "Rank stock and crypto tickers by social media hype",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(explainCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())

	return root
}

func collectCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run data collectors and store the posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), only)
		},
	}

	cmd.Flags().StringVar(&only, "source", "", "collect from one source only (reddit, twitter, rss)")
	return cmd
}

func scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score recently collected posts and show the hype ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.top, "top", 0, "number of top tickers to return (default: from config)")
	cmd.Flags().IntVar(&opts.minMentions, "min-mentions", 0, "minimum mentions required (default: from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "show score breakdowns for the top 3")
	cmd.Flags().DurationVar(&opts.lookback, "lookback", 0, "window of collected posts to score (default: from config)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the scan in history")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "also write results to this CSV file")
	return cmd
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain TICKER",
		Short: "Explain a ticker's score in the latest scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), args[0])
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history TICKER",
		Short: "Show a ticker's hype across past scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max scans to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, sources and stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

type scanOptions struct {
	top         int
	minMentions int
	json        bool
	explain     bool
	lookback    time.Duration
	noSave      bool
	csvPath     string
}
