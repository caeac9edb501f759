package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/talentforge/resume-extractor/internal/dashboard"
)

func main() {
	var (
		csvFile    = flag.String("csv", "candidates.csv", "CSV file with candidate data")
		port       = flag.Int("port", 8003, "port to serve on")
		resumeDirs = flag.String("resume-dirs", "", "comma-separated directories to index for resume files (default: all subdirectories)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	srv := dashboard.NewServer(root, *csvFile, logger)
	if err := srv.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var dirs []string
	if *resumeDirs != "" {
		for _, d := range strings.Split(*resumeDirs, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	index, err := dashboard.BuildResumePathIndex(root, dirs)
	if err != nil {
		logger.Warn("resume path index failed; dashboard links may not work", "error", err)
	} else if err := dashboard.WriteResumePathIndex(root, index); err != nil {
		logger.Warn("resume path index write failed", "error", err)
	} else {
		logger.Info("resume path index written", "resumes", len(index))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
