// Package store accumulates extraction results and keeps them durable:
// it recovers prior output at startup, snapshots in-progress rows to a temp
// file every few completions, and atomically promotes the accumulated rows to
// the final CSV at run end.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/talentforge/resume-extractor/internal/llm"
)

// DefaultCheckpointEvery is the completion interval between snapshots.
const DefaultCheckpointEvery = 20

// ErrorRecord is one failed work item, append-only.
type ErrorRecord struct {
	Filename string
	Path     string
	Time     string
	Reason   string
}

var errorFieldNames = []string{"resume_filename", "pdf_path", "error_time", "error_reason"}

// ResultStore owns the run's rows and errors. It is written from a single
// consumer (the orchestrator's completion loop), so it carries no lock;
// concurrent appends must go through that loop.
type ResultStore struct {
	log             *slog.Logger
	output          string
	checkpointEvery int

	rows        []llm.Record
	errs        []ErrorRecord
	prior       map[string]struct{}
	completions int
	checkpoints int
}

func NewResultStore(output string, checkpointEvery int, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	if checkpointEvery <= 0 {
		checkpointEvery = DefaultCheckpointEvery
	}
	return &ResultStore{
		log:             logger,
		output:          output,
		checkpointEvery: checkpointEvery,
		prior:           make(map[string]struct{}),
	}
}

func (s *ResultStore) TempPath() string        { return s.output + ".tmp" }
func (s *ResultStore) InterruptedPath() string { return s.output + ".interrupted" }

// ErrorPath is the sibling errors file: <base>_errors.csv.
func (s *ResultStore) ErrorPath() string {
	ext := filepath.Ext(s.output)
	return strings.TrimSuffix(s.output, ext) + "_errors" + ext
}

// LoadExisting recovers prior rows and their key set, preferring the
// finalized output over the in-progress temp file. A parse failure degrades
// to "no prior state" so a corrupt checkpoint never aborts a run.
func (s *ResultStore) LoadExisting() map[string]struct{} {
	for _, path := range []string{s.output, s.TempPath()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rows, err := readRows(path)
		if err != nil {
			s.log.Warn("store.load.unreadable", "path", path, "error", err)
			continue
		}
		s.rows = rows
		for _, r := range rows {
			s.prior[r.Key()] = struct{}{}
		}
		s.log.Info("store.load.resumed", "path", path, "already_processed", len(s.prior))
		break
	}
	return s.ProcessedKeys()
}

// ProcessedKeys returns a copy of the keys recovered from prior output.
func (s *ResultStore) ProcessedKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.prior))
	for k := range s.prior {
		keys[k] = struct{}{}
	}
	return keys
}

// RecordSuccess appends one extracted record. Append order is preserved all
// the way to the final file.
func (s *ResultStore) RecordSuccess(rec llm.Record) {
	s.rows = append(s.rows, rec)
}

// RecordError appends one failed item.
func (s *ResultStore) RecordError(e ErrorRecord) {
	s.errs = append(s.errs, e)
}

func (s *ResultStore) SuccessCount() int { return len(s.rows) }
func (s *ResultStore) ErrorCount() int   { return len(s.errs) }
func (s *ResultStore) Checkpoints() int  { return s.checkpoints }

// MaybeCheckpoint counts one completion and snapshots every checkpointEvery
// completions. Snapshot failures are logged and swallowed: checkpointing is
// best-effort durability, not a commit protocol.
func (s *ResultStore) MaybeCheckpoint() bool {
	s.completions++
	if s.completions%s.checkpointEvery != 0 {
		return false
	}
	if err := s.Checkpoint(); err != nil {
		s.log.Warn("store.checkpoint.failed", "error", err)
		return false
	}
	s.log.Info("store.checkpoint.saved",
		"completions", s.completions,
		"rows", len(s.rows),
		"errors", len(s.errs),
		"path", s.TempPath(),
	)
	return true
}

// Checkpoint writes the full accumulated rows to the temp file and the full
// error list to the errors file.
func (s *ResultStore) Checkpoint() error {
	if len(s.rows) > 0 {
		if err := writeRows(s.TempPath(), s.rows); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
	}
	if err := s.writeErrors(); err != nil {
		return err
	}
	s.checkpoints++
	return nil
}

// Finalize promotes the accumulated rows to the output path by writing the
// temp file and renaming it into place, then writes the error report.
func (s *ResultStore) Finalize() error {
	if len(s.rows) == 0 {
		s.log.Warn("store.finalize.empty", "output", s.output)
		return s.writeErrors()
	}
	if err := writeRows(s.TempPath(), s.rows); err != nil {
		return fmt.Errorf("write final rows: %w", err)
	}
	if err := os.Rename(s.TempPath(), s.output); err != nil {
		return fmt.Errorf("promote output: %w", err)
	}
	s.checkpoints++
	if err := s.writeErrors(); err != nil {
		return err
	}
	s.log.Info("store.finalized", "output", s.output, "rows", len(s.rows), "errors", len(s.errs))
	return nil
}

// SnapshotInterrupted preserves current state on cooperative cancellation.
// The temp file is left intact for a future resume.
func (s *ResultStore) SnapshotInterrupted() error {
	if len(s.rows) > 0 {
		if err := writeRows(s.InterruptedPath(), s.rows); err != nil {
			return fmt.Errorf("write interrupted snapshot: %w", err)
		}
		s.log.Info("store.interrupted.saved", "path", s.InterruptedPath(), "rows", len(s.rows))
	}
	return s.writeErrors()
}

func (s *ResultStore) writeErrors() error {
	if len(s.errs) == 0 {
		return nil
	}
	f, err := os.Create(s.ErrorPath())
	if err != nil {
		return fmt.Errorf("create error file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(errorFieldNames); err != nil {
		return err
	}
	for _, e := range s.errs {
		if err := w.Write([]string{e.Filename, e.Path, e.Time, e.Reason}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeRows writes header plus rows in the schema-defined column order. The
// order is identical across checkpoint, final and resume writes, so
// re-reading a checkpoint and re-appending never shifts columns.
func writeRows(path string, rows []llm.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	names := llm.FieldNames()
	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return err
	}
	cells := make([]string, len(names))
	for _, rec := range rows {
		for i, name := range names {
			cells[i] = rec[name]
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readRows(path string) ([]llm.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	keyCol := -1
	for i, name := range header {
		if name == llm.KeyField {
			keyCol = i
		}
	}
	if keyCol == -1 {
		return nil, fmt.Errorf("header has no %s column", llm.KeyField)
	}

	var rows []llm.Record
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make(llm.Record, len(header))
		for i, name := range header {
			if i < len(cells) {
				rec[name] = cells[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
