package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/propdesk/bestbets/internal/aggregator"
	"github.com/propdesk/bestbets/internal/app"
	"github.com/propdesk/bestbets/internal/cache"
	"github.com/propdesk/bestbets/internal/config"
	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/ops"
	"github.com/propdesk/bestbets/internal/signals"
	"github.com/propdesk/bestbets/internal/warehouse"
	"github.com/propdesk/bestbets/internal/warehouse/postgres"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(path)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sizing, _ := cmd.Flags().GetString("sizing"); sizing != "" {
		if sizing != aggregator.SizingNatural && sizing != aggregator.SizingCapped {
			return fmt.Errorf("invalid --sizing %q (use %q or %q)", sizing, aggregator.SizingNatural, aggregator.SizingCapped)
		}
		cfg.Picks.SizingMode = sizing
	}
	if maxPicks, _ := cmd.Flags().GetInt("max-picks"); maxPicks > 0 {
		cfg.Picks.MaxPicksPerDay = maxPicks
	}
	if err := cfg.Picks.Validate(); err != nil {
		return err
	}

	date, _ := cmd.Flags().GetString("date")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	db, err := postgres.Connect(cfg.Warehouse.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	timeout := cfg.Warehouse.QueryTimeout
	runner := app.NewRunner(cfg,
		warehouse.NewGuardedPredictions(postgres.NewPredictionsRepo(db, timeout)),
		postgres.NewGradedRepo(db, timeout),
		postgres.NewComboRepo(db, timeout),
		postgres.NewPicksRepo(db, timeout),
		cache.NewOpponentCache(redisClient),
	)

	result, err := runner.Run(cmd.Context(), date, dryRun)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *app.RunResult) {
	fmt.Printf("Run %s — %s: %d candidates, %d picks\n",
		result.RunID, result.Date, result.Summary.TotalCandidates, result.Summary.PassedFilters)
	for _, pick := range result.Picks {
		fmt.Printf("  #%d %s %s %.1f (edge %+.1f, score %.3f, %d signals)\n",
			pick.Rank, pick.PlayerLookup, pick.Recommendation, pick.LineValue,
			pick.Edge, pick.CompositeScore, pick.SignalCount)
	}

	reasons := make([]string, 0, len(result.Summary.Rejected))
	for reason, count := range result.Summary.Rejected {
		if count > 0 {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, count))
		}
	}
	sort.Strings(reasons)
	if len(reasons) > 0 {
		fmt.Println("Rejections:", reasons)
	}
}

func runSignals(cmd *cobra.Command, _ []string) error {
	registry := signals.BuildDefaultRegistry()
	for i, tag := range registry.Tags() {
		fmt.Printf("%2d. %s\n", i+1, tag)
	}
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	date, _ := cmd.Flags().GetString("date")
	asOf, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	db, err := postgres.Connect(cfg.Warehouse.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	graded := postgres.NewGradedRepo(db, cfg.Warehouse.QueryTimeout)
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunBudget)
	defer cancel()

	modelHealth := health.LoadModelHealth(ctx, graded, cfg.Season, asOf)
	if len(modelHealth) == 0 {
		fmt.Println("No model health available")
		return nil
	}

	ids := make([]string, 0, len(modelHealth))
	for id := range modelHealth {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		mh := modelHealth[id]
		fmt.Printf("%-24s %-18s hr7=%.1f hr30=%.1f season=%.1f n30=%d\n",
			id, mh.State, mh.HR7, mh.HR30, mh.HRSeason, mh.Sample30)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	server := ops.NewServer(cfg.Ops.ListenAddr, version)
	if err := server.ListenAndServe(); err != nil {
		log.Error().Err(err).Msg("Ops server exited")
		os.Exit(1)
	}
	return nil
}
