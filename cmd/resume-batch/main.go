package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/talentforge/resume-extractor/internal/batch"
	"github.com/talentforge/resume-extractor/internal/common"
	"github.com/talentforge/resume-extractor/internal/extract"
	"github.com/talentforge/resume-extractor/internal/llm/openai"
	"github.com/talentforge/resume-extractor/internal/ratelimit"
	"github.com/talentforge/resume-extractor/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		provider = flag.String("provider", common.ProviderGroq, "model provider: openai or groq")
		model    = flag.String("model", "", "model name (default: provider default)")
		apiKey   = flag.String("api-key", "", "API key for the provider (or set via environment)")
		output   = flag.String("output", "candidates.csv", "output CSV filename")
		sample   = flag.Int("sample", 0, "process only N resumes for testing (0 = all)")
		dir      = flag.String("directory", ".", "directory to search for resumes")
		workers  = flag.Int("workers", batch.DefaultWorkers, "number of parallel workers")
		xlsxOut  = flag.String("xlsx", "", "also export the final results as XLSX to this path")
	)
	flag.Parse()

	// .env is optional; environment wins when both are set.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig(*provider)
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if *apiKey != "" {
		cfg.LLM.APIKey = *apiKey
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gate := ratelimit.NewGate(cfg.Pipeline.MinRequestInterval)
	client, err := openai.NewClient(openai.Config{
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
		MaxTextChars: cfg.Pipeline.MaxTextChars,
	}, gate, logger)
	if err != nil {
		logger.Error("client init failed", "error", err)
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("client initialized",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"workers", cfg.Pipeline.Workers,
	)

	results := store.NewResultStore(*output, cfg.Pipeline.CheckpointEvery, logger)
	orch := batch.NewOrchestrator(extract.NewPDFExtractor(logger), client, results, logger)

	summary, err := orch.Run(ctx, batch.RunConfig{
		Dir:      *dir,
		Workers:  cfg.Pipeline.Workers,
		Sample:   *sample,
		Progress: true,
		XLSXPath: *xlsxOut,
	})
	if errors.Is(err, batch.ErrInterrupted) {
		printError("Interrupted. Partial results saved to %s\n", results.InterruptedPath())
		os.Exit(130)
	}
	if err != nil {
		logger.Error("batch run failed", "error", err)
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processing complete!\n")
	fmt.Printf("- Found: %d (already processed: %d)\n", summary.Found, summary.AlreadyDone)
	fmt.Printf("- Attempted: %d\n", summary.Attempted)
	fmt.Printf("- Succeeded: %d\n", summary.Succeeded)
	fmt.Printf("- Failed: %d\n", summary.Failed)
	if summary.Attempted > 0 {
		fmt.Printf("- Success rate: %.1f%%\n", summary.SuccessRate())
	}
	fmt.Printf("- Output: %s\n", *output)
	if summary.Failed > 0 {
		fmt.Printf("- Error details: %s\n", results.ErrorPath())
	}
}
