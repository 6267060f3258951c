package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/advisor"
	"github.com/optiflow/decision-engine/pkg/api"
	"github.com/optiflow/decision-engine/pkg/config"
	"github.com/optiflow/decision-engine/pkg/engine"
	"github.com/optiflow/decision-engine/pkg/lifecycle"
	"github.com/optiflow/decision-engine/pkg/models"
	"github.com/optiflow/decision-engine/pkg/notify"
	"github.com/optiflow/decision-engine/pkg/policy"
	"github.com/optiflow/decision-engine/pkg/reasoner"
	"github.com/optiflow/decision-engine/pkg/reporter"
	"github.com/optiflow/decision-engine/pkg/snapshot"
	"github.com/optiflow/decision-engine/pkg/storage"
	"github.com/optiflow/decision-engine/pkg/trigger"
)

var (
	// Evaluate flags
	triggerKind  string
	forceRun     bool
	dryRun       bool
	outputFormat string

	// Decisions flags
	listLimit int

	// Global config
	cfg *config.Config
	log *zap.Logger
)

func main() {
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "decision-engine",
		Short: "Automated resource-optimization decision engine",
		Long:  `Evaluates business resource snapshots against configurable triggers, obtains optimization recommendations, and tracks confidence-gated decisions through their lifecycle.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			var err error
			if cfg.Verbose {
				log, err = zap.NewDevelopment()
			} else {
				log, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable verbose logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}

	evaluateCmd := &cobra.Command{
		Use:   "evaluate <tenant-id>",
		Short: "Run one evaluation cycle for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().StringVar(&triggerKind, "trigger", "", "Trigger kind (use 'manual' to force activation)")
	evaluateCmd.Flags().BoolVar(&forceRun, "force", false, "Run the pipeline even when no trigger activated")
	evaluateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not persist decisions")
	evaluateCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")

	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "Inspect persisted decisions",
	}
	listCmd := &cobra.Command{
		Use:   "list <tenant-id>",
		Short: "List a tenant's recent decisions",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "Number of decisions to show")
	listCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	auditCmd := &cobra.Command{
		Use:   "audit <tenant-id> <decision-id>",
		Short: "View a decision's transition history",
		Args:  cobra.ExactArgs(2),
		RunE:  runAudit,
	}
	auditCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	decisionsCmd.AddCommand(listCmd)
	decisionsCmd.AddCommand(auditCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(decisionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildEngine wires the pipeline around the given decision store and the
// shared tenant database.
func buildEngine(pg *storage.PostgresStore, decisions storage.Store) *engine.Engine {
	var source reasoner.Source
	if cfg.ReasonerAPIKey == "" {
		log.Warn("no reasoner API key configured, every cycle will use the fallback generator")
		source = reasoner.Disabled{}
	} else {
		source = reasoner.NewClient(log, cfg.ReasonerBaseURL, cfg.ReasonerAPIKey, cfg.ReasonerModel, cfg.ReasonerTimeout)
	}

	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	if cfg.NotifyWebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(log, cfg.NotifyWebhookURL)
	}

	return engine.New(
		log,
		snapshot.NewPostgresProvider(pg.DB()),
		trigger.NewEvaluator(cfg.PerformanceThreshold),
		advisor.New(log, source),
		policy.New(cfg.AutoImplementThreshold, cfg.MinPersistPriority),
		lifecycle.NewManager(log, decisions),
		decisions,
		dispatcher,
	)
}

func runServe(*cobra.Command, []string) error {
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	eng := buildEngine(store, store)
	handler := api.NewHandler(log, eng)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * cfg.ReasonerTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func runEvaluate(_ *cobra.Command, args []string) error {
	tenantID := args[0]

	pg, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer pg.Close()

	var decisions storage.Store = pg
	if dryRun {
		// Snapshot still comes from the database; decisions stay in memory.
		decisions = storage.NewMemStore()
	}

	eng := buildEngine(pg, decisions)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.ReasonerTimeout)
	defer cancel()

	report, err := eng.RunEvaluation(ctx, tenantID, models.TriggerKind(triggerKind), forceRun)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	out, err := reporter.New(reporter.Format(outputFormat)).RenderReport(report)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runList(_ *cobra.Command, args []string) error {
	tenantID := args[0]

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	decisions, err := store.ListDecisions(ctx, tenantID, listLimit)
	if err != nil {
		return err
	}

	out, err := reporter.New(reporter.Format(outputFormat)).RenderDecisions(decisions)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runAudit(_ *cobra.Command, args []string) error {
	tenantID, decisionID := args[0], args[1]

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := store.GetDecision(ctx, tenantID, decisionID); err != nil {
		return err
	}
	entries, err := store.GetAuditLog(ctx, decisionID)
	if err != nil {
		return err
	}

	out, err := reporter.New(reporter.Format(outputFormat)).RenderAudit(entries)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
