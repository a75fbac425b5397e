package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "bestbets"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	// Console output for humans at a terminal, structured JSON otherwise
	// (cron, Cloud Run).
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Daily best-bet selection from player-prop model output",
		Version: version,
		Long: `bestbets runs the daily signal-evaluation and filtering pipeline:
it pulls the day's player-prop predictions, evaluates the signal registry
against each candidate, applies the filter stack, and writes the ranked
pick list back to the warehouse.`,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (defaults built in)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for one date",
		Long:  "Fetch candidates, evaluate signals, aggregate and persist picks for the given date",
		RunE:  runPipeline,
	}
	runCmd.Flags().String("date", time.Now().Format("2006-01-02"), "Game date (YYYY-MM-DD)")
	runCmd.Flags().Bool("dry-run", false, "Skip the final warehouse write")
	runCmd.Flags().String("sizing", "", "Override sizing mode (natural|capped)")
	runCmd.Flags().Int("max-picks", 0, "Override daily cap (capped mode only)")

	signalsCmd := &cobra.Command{
		Use:   "signals",
		Short: "List the registered signal set",
		RunE:  runSignals,
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Report model health states from graded history",
		RunE:  runHealth,
	}
	healthCmd.Flags().String("date", time.Now().Format("2006-01-02"), "As-of date (YYYY-MM-DD)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ops HTTP surface (/metrics, /health)",
		RunE:  runServe,
	}

	rootCmd.AddCommand(runCmd, signalsCmd, healthCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
