// Package batch drives the whole run: discover resumes, skip the ones a prior
// run already produced, fan the rest out to a bounded worker pool, and stream
// completions into the checkpointing result store.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/talentforge/resume-extractor/constants"
	"github.com/talentforge/resume-extractor/internal/common"
	"github.com/talentforge/resume-extractor/internal/extract"
	"github.com/talentforge/resume-extractor/internal/llm"
	"github.com/talentforge/resume-extractor/internal/store"
)

// ErrInterrupted marks a run stopped by cooperative cancellation. Partial
// results were snapshotted to the interrupted path before returning.
var ErrInterrupted = errors.New("run interrupted")

const errorTimeFormat = "2006-01-02 15:04:05"

// DefaultWorkers is the default worker-pool size.
const DefaultWorkers = 4

type RunConfig struct {
	Dir      string
	Workers  int
	Sample   int // cap so already-done + dispatched <= Sample; 0 = no cap
	Progress bool
	XLSXPath string
}

// Summary is the final run report.
type Summary struct {
	Found       int
	AlreadyDone int
	Attempted   int
	Succeeded   int
	Failed      int
	Checkpoints int
}

// SuccessRate is succeeded/attempted as a percentage, 0 for empty runs.
func (s Summary) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempted) * 100
}

// workItem is one resume to process. The filename is the stable key.
type workItem struct {
	Key  string
	Path string
}

// completion is one worker's terminal outcome for an item; exactly one of
// rec/err is set.
type completion struct {
	key  string
	path string
	rec  llm.Record
	err  error
}

type Orchestrator struct {
	log      *slog.Logger
	texts    extract.TextExtractor
	profiles llm.ProfileExtractor
	results  *store.ResultStore
}

func NewOrchestrator(texts extract.TextExtractor, profiles llm.ProfileExtractor, results *store.ResultStore, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{log: logger, texts: texts, profiles: profiles, results: results}
}

// Run executes one batch. It returns ErrInterrupted when ctx is cancelled
// mid-run; any other error is a pipeline-wide fault.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (Summary, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	processed := o.results.LoadExisting()

	found, err := discover(cfg.Dir)
	if err != nil {
		return Summary{}, fmt.Errorf("enumerate %s: %w", cfg.Dir, err)
	}

	todo := make([]workItem, 0, len(found))
	for _, item := range found {
		if _, done := processed[item.Key]; done {
			o.log.Debug("batch.item.done",
				"key", item.Key, "status", constants.ItemStatusSkipped)
			continue
		}
		todo = append(todo, item)
	}
	if cfg.Sample > 0 {
		remaining := cfg.Sample - len(processed)
		if remaining < 0 {
			remaining = 0
		}
		if len(todo) > remaining {
			todo = todo[:remaining]
		}
	}

	summary := Summary{Found: len(found), AlreadyDone: len(processed), Attempted: len(todo)}
	o.log.Info("batch.plan",
		"found", len(found),
		"already_processed", len(processed),
		"to_process", len(todo),
		"workers", cfg.Workers,
	)
	if len(todo) == 0 {
		// Includes the sample-below-already-done case: an intentional no-op.
		o.log.Info("batch.nothing_to_do")
		return summary, nil
	}

	jobs := make(chan workItem)
	completions := make(chan completion)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			for item := range jobs {
				res := o.processOne(gctx, item)
				select {
				case completions <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		defer close(jobs)
		for _, item := range todo {
			select {
			case jobs <- item:
			case <-gctx.Done():
				return
			}
		}
	}()
	go func() {
		_ = g.Wait()
		close(completions)
	}()

	var bar *pterm.ProgressbarPrinter
	if cfg.Progress {
		bar, _ = pterm.DefaultProgressbar.
			WithTotal(len(todo)).
			WithTitle("Processing resumes").
			Start()
	}

loop:
	for {
		select {
		case <-ctx.Done():
			// Stop accepting completions; in-flight calls are abandoned to
			// pool teardown. Partial progress is never lost.
			if bar != nil {
				_, _ = bar.Stop()
			}
			o.log.Warn("batch.interrupted",
				"succeeded", summary.Succeeded,
				"failed", summary.Failed,
			)
			if err := o.results.SnapshotInterrupted(); err != nil {
				o.log.Error("batch.interrupted.snapshot_failed", "error", err)
			}
			summary.Checkpoints = o.results.Checkpoints()
			return summary, ErrInterrupted
		case c, ok := <-completions:
			if !ok {
				break loop
			}
			if c.err != nil {
				summary.Failed++
				o.results.RecordError(store.ErrorRecord{
					Filename: c.key,
					Path:     c.path,
					Time:     time.Now().Format(errorTimeFormat),
					Reason:   c.err.Error(),
				})
				o.log.Warn("batch.item.done",
					"key", c.key, "status", constants.ItemStatusFailed, "error", c.err)
			} else {
				summary.Succeeded++
				o.results.RecordSuccess(c.rec)
				o.log.Debug("batch.item.done",
					"key", c.key, "status", constants.ItemStatusSucceeded)
			}
			if bar != nil {
				bar.Increment()
			}
			o.results.MaybeCheckpoint()
		}
	}
	if bar != nil {
		_, _ = bar.Stop()
	}

	if err := o.results.Finalize(); err != nil {
		return summary, fmt.Errorf("finalize results: %w", err)
	}
	if cfg.XLSXPath != "" {
		if err := o.results.ExportXLSX(cfg.XLSXPath); err != nil {
			o.log.Warn("batch.xlsx_export_failed", "error", err)
		}
	}
	summary.Checkpoints = o.results.Checkpoints()

	o.log.Info("batch.done",
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate()),
	)
	return summary, nil
}

// processOne is the worker body: text extraction then profile extraction.
// Faults never escape past this boundary; a panic becomes an error completion
// so one bad item cannot kill the pool.
func (o *Orchestrator) processOne(ctx context.Context, item workItem) (c completion) {
	c = completion{key: item.Key, path: item.Path}
	defer func() {
		if r := recover(); r != nil {
			c.rec = nil
			c.err = fmt.Errorf("unexpected worker fault: %v", r)
		}
	}()

	ctx = common.WithRequestID(ctx, uuid.New().String())

	text, err := o.texts.Extract(ctx, item.Path)
	if err != nil {
		c.err = err
		return c
	}
	rec, err := o.profiles.ExtractProfile(ctx, llm.ExtractRequest{
		ResumeText: text.Text,
		Filename:   item.Key,
	})
	if err != nil {
		c.err = err
		return c
	}
	c.rec = rec
	return c
}

// discover enumerates candidate resumes under root, recursively, keyed by
// filename. A duplicate filename deeper in the tree is skipped so a key is
// dispatched at most once.
func discover(root string) ([]workItem, error) {
	var items []workItem
	seen := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable subtrees, keep walking
		}
		if d.IsDir() || !constants.IsResumeFile(d.Name()) {
			return nil
		}
		if _, dup := seen[d.Name()]; dup {
			return nil
		}
		seen[d.Name()] = struct{}{}
		items = append(items, workItem{Key: d.Name(), Path: path})
		return nil
	})
	return items, err
}
