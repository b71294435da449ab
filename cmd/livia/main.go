package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jgwall/proj-livia/internal/constants"
	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/config"
	"github.com/jgwall/proj-livia/pkg/evolve"
	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/report"
	"github.com/jgwall/proj-livia/pkg/snapshot"
	"github.com/jgwall/proj-livia/pkg/storage"
)

var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return constants.ExitSuccess
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return constants.ExitUsage
	default:
		return constants.ExitError
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runEvolve(ctx, args[1:], stdout, stderr)
	case "init-config":
		return runInitConfig(args[1:], stdout, stderr)
	case "runs":
		return runRuns(ctx, args[1:], stdout, stderr)
	case "history":
		return runHistory(ctx, args[1:], stdout, stderr)
	case "plot":
		return runPlot(ctx, args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "%s %s\n", constants.Name, constants.Version)
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runEvolve(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	targetPath := fs.String("target", "", "target image (png, jpeg or gif)")
	generations := fs.Int("generations", 0, "generations to run (0 keeps the config value)")
	seed := fs.Int64("seed", 0, "random seed")
	outDir := fs.String("out", "", "output directory")
	resumePath := fs.String("resume", "", "checkpoint to resume from")
	workers := fs.Int("workers", -1, "parallel workers per generation (-1 keeps the config value, 0 uses all CPUs)")
	verbose := fs.Bool("verbose", false, "log progress at every snapshot and debug detail")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	manager, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()

	if *targetPath != "" {
		cfg.Image.Path = *targetPath
	}
	if *generations > 0 {
		cfg.Evolution.Generations = *generations
	}
	if *workers >= 0 {
		cfg.Evolution.Workers = *workers
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			s := *seed
			cfg.Evolution.Seed = &s
		}
	})
	if *outDir != "" {
		cfg.Output.Dir = *outDir
		cfg.Output.ImagePath = ""
		cfg.Output.PlotPath = ""
		cfg.Snapshot.OutputPrefix = ""
		cfg.Storage.SQLitePath = ""
	}
	if *verbose {
		cfg.Snapshot.Verbose = true
	}
	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Image.Path == "" {
		return usageError("run requires -target or image.path in the config")
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	if cfg.Snapshot.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	display, err := imaging.LoadTarget(cfg.Image.Path, cfg.Image.Grayscale, cfg.Image.MaxPixels)
	if err != nil {
		return err
	}
	target := imaging.ToNormalized(display)
	logger.WithFields(logrus.Fields{
		"file":  cfg.Image.Path,
		"shape": display.Shape,
	}).Info("Loaded target image")

	var resumeState *evolve.State
	var resumeRunID string
	if *resumePath != "" {
		state, cp, err := snapshot.LoadCheckpoint(*resumePath)
		if err != nil {
			return err
		}
		resumeState, resumeRunID = state, cp.RunID
		logger.WithFields(logrus.Fields{
			"run":        cp.RunID,
			"generation": cp.Generation,
			"file":       *resumePath,
		}).Info("Loaded checkpoint")

		// the population size is fixed for the life of a run
		if members := len(state.Population); members != cfg.Evolution.PopSize {
			logger.WithFields(logrus.Fields{
				"configured": cfg.Evolution.PopSize,
				"checkpoint": members,
			}).Warn("Using the checkpoint population size")
			cfg.Evolution.PopSize = members
		}
	}

	driver, err := evolve.NewDriver(cfg.Evolution)
	if err != nil {
		return err
	}
	driver.SetLogger(logger)
	driver.SetRunID(resumeRunID)

	// the record carries the effective seed so the run can be repeated
	effective := cfg.Evolution
	usedSeed := driver.Seed()
	effective.Seed = &usedSeed

	var store storage.Store
	record := types.RunRecord{
		ID:        driver.RunID(),
		CreatedAt: time.Now(),
		Seed:      usedSeed,
		Target:    cfg.Image.Path,
		Config:    effective,
	}
	if cfg.Snapshot.PersistRuns {
		store, err = openStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer func() {
			_ = storage.CloseIfSupported(store)
		}()
		previous, ok, err := store.GetRun(ctx, record.ID)
		if err != nil {
			return err
		}
		if ok {
			record.CreatedAt = previous.CreatedAt
		}
	}

	var sinks []evolve.Sink
	if cfg.Snapshot.Verbose {
		sinks = append(sinks, snapshot.NewLogSink(logger))
	}
	if cfg.Snapshot.WriteFiles {
		fileSink := snapshot.NewFileSink(cfg.Snapshot.OutputPrefix, effective)
		fileSink.SetLogger(logger)
		sinks = append(sinks, fileSink)
	}
	if store != nil {
		sinks = append(sinks, snapshot.NewStoreSink(store, record))
	}
	sink := snapshot.Multi(sinks...)

	logger.WithFields(logrus.Fields{
		"run":         driver.RunID(),
		"popsize":     cfg.Evolution.PopSize,
		"generations": cfg.Evolution.Generations,
		"seed":        usedSeed,
	}).Info("Starting evolution")

	var result *evolve.Result
	if resumeState != nil {
		result, err = driver.Resume(ctx, resumeState, target, sink)
	} else {
		result, err = driver.Run(ctx, target, sink)
	}
	if err != nil {
		return err
	}

	if err := imaging.SaveDisplay(cfg.Output.ImagePath, result.AverageImage); err != nil {
		return err
	}
	if err := report.PlotFitness(result.FitnessHistory, cfg.Output.PlotTitle, cfg.Output.PlotPath); err != nil {
		return err
	}

	if store != nil {
		record.Generation = result.Final.Generation()
		record.FinalFitness = result.Final.MeanFitness()
		record.UpdatedAt = time.Now()
		if err := store.SaveFitnessHistory(ctx, result.RunID, result.FitnessHistory); err != nil {
			return fmt.Errorf("failed to save fitness history: %w", err)
		}
		if err := store.SaveRun(ctx, record); err != nil {
			return fmt.Errorf("failed to save run record: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"run":         result.RunID,
		"evaluations": result.Stats.Evaluations,
		"duration":    result.Stats.Duration,
	}).Info("Evolution completed")

	fmt.Fprintf(stdout, "run_id=%s seed=%d generation=%d start_fitness=%.6f final_fitness=%.6f image=%s plot=%s\n",
		result.RunID,
		result.Seed,
		result.Final.Generation(),
		result.Stats.StartFitness,
		result.Stats.FinalFitness,
		cfg.Output.ImagePath,
		cfg.Output.PlotPath,
	)
	return nil
}

func runInitConfig(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "livia.yaml", "path of the config file to write")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := config.CreateDefaultConfig(*out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote default config to %s\n", *out)
	return nil
}

func runRuns(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	limit := fs.Int("limit", 20, "max runs to list, newest first")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit <= 0 {
		return usageError("limit must be > 0")
	}

	store, err := storeFromConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}

	// newest first
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	if len(runs) > *limit {
		runs = runs[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s seed=%d pop=%d generation=%d final_fitness=%.6f target=%s\n",
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Seed,
			r.Config.PopSize,
			r.Generation,
			r.FinalFitness,
			r.Target,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	runID := fs.String("run", "", "run id")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("history requires -run")
	}

	history, err := loadHistory(ctx, *configPath, *runID)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, f := range history {
		fmt.Fprintf(stdout, "generation=%d avg_fitness=%.6f\n", i, f)
	}
	summary, err := report.Summarize(history)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "best_fitness=%.6f best_generation=%d improvement=%.6f\n",
		summary.BestFitness, summary.BestGeneration, summary.Improvement)
	return nil
}

func runPlot(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	runID := fs.String("run", "", "run id")
	out := fs.String("out", constants.FitnessPlotFile, "plot output path")
	title := fs.String("title", "", "plot title (defaults to the config's plot title)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("plot requires -run")
	}

	history, err := loadHistory(ctx, *configPath, *runID)
	if err != nil {
		return err
	}

	plotTitle := *title
	if plotTitle == "" {
		manager, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		plotTitle = manager.GetConfig().Output.PlotTitle
	}

	if err := report.PlotFitness(history, plotTitle, *out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote fitness plot to %s\n", *out)
	return nil
}

func loadConfig(path string) (*config.Manager, error) {
	manager := config.NewManager()
	if path == "" {
		if err := manager.LoadDefaults(); err != nil {
			return nil, err
		}
		return manager, nil
	}
	if err := manager.Load(path); err != nil {
		return nil, err
	}
	return manager, nil
}

func openStore(ctx context.Context, cfg types.StorageConfig) (storage.Store, error) {
	store, err := storage.NewStore(cfg.Backend, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Backend, err)
	}
	return store, nil
}

func storeFromConfig(ctx context.Context, configPath string) (storage.Store, error) {
	manager, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return openStore(ctx, manager.GetConfig().Storage)
}

func loadHistory(ctx context.Context, configPath, runID string) ([]float64, error) {
	store, err := storeFromConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	history, ok, err := store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run %s", runID)
	}
	return history, nil
}

// parseFlags reports bad flags as usage errors
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usageError(err.Error())
}

func usageError(msg string) error {
	return fmt.Errorf("%w: %s\nusage: %s <run|init-config|runs|history|plot|version> [flags]",
		errUsage, msg, constants.Name)
}
