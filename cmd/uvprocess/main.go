package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"uvcal/internal/calc"
	"uvcal/internal/config"
	"uvcal/internal/export"
	"uvcal/internal/infrastructure"
	"uvcal/internal/pipeline"
	"uvcal/internal/scheduler"
	"uvcal/internal/solver"
)

func main() {
	configFile := flag.String("config", "config.yaml", "configuration file")
	calibrationFile := flag.String("calibration", "", "calibration file (optional)")
	arfFile := flag.String("arf", "", "angular response file (optional)")
	ozoneFile := flag.String("ozone", "", "ozone observation file (optional)")
	paramsFile := flag.String("params", "", "atmospheric parameter file (optional)")
	outDir := flag.String("out", "out", "output directory for corrected spectra")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: uvprocess [flags] <measurement file> ...")
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	optional := func(path string) calc.Source {
		if path == "" {
			return nil
		}
		return calc.FileSource{Path: path}
	}

	var inputs []*calc.Input
	for _, path := range flag.Args() {
		input := calc.NewInput(filepath.Base(path), calc.FileSource{Path: path}, cfg.Ancillary, logger)
		input.CalibrationSrc = optional(*calibrationFile)
		input.ARFSrc = optional(*arfFile)
		input.OzoneSrc = optional(*ozoneFile)
		input.ParamsSrc = optional(*paramsFile)
		inputs = append(inputs, input)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Solver.RateLimit), cfg.Solver.RateBurst)
	client := solver.NewClient(cfg.Solver.Executable, cfg.Solver.DataDir, limiter, logger)
	pipe := pipeline.New(cfg.Pipeline, cfg.StraylightFor, client, logger)
	sched := scheduler.New(cfg.Scheduler, pipe, scheduler.NewMetrics(nil), logger)

	results, err := sched.Run(context.Background(), inputs, scheduler.NewLogProgress(logger))
	if err != nil {
		logger.Error("Batch failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	for _, result := range results {
		name := fmt.Sprintf("%s_%03d.qasume",
			strings.TrimSuffix(result.InputID, filepath.Ext(result.InputID)), result.SectionIndex)
		if err := writeResult(filepath.Join(*outDir, name), result); err != nil {
			logger.Error("Failed to write result", "file", name, "error", err)
			os.Exit(1)
		}
	}

	for _, input := range inputs {
		for _, warning := range input.Warnings().List() {
			logger.Warn("Default substituted during processing",
				"input", input.ID, "warning", warning.String())
		}
	}

	logger.Info("Processing complete",
		"inputs", len(inputs),
		"results", len(results),
		"output_dir", *outDir)
}

func writeResult(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := export.WriteQasume(f, result, result.InputID); err != nil {
		return err
	}
	return f.Close()
}
