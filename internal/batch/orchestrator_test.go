package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentforge/resume-extractor/internal/common"
	"github.com/talentforge/resume-extractor/internal/extract"
	"github.com/talentforge/resume-extractor/internal/llm"
	"github.com/talentforge/resume-extractor/internal/store"
)

// fakeTexts returns canned text for every path without touching a real PDF.
type fakeTexts struct{}

func (fakeTexts) Extract(_ context.Context, path string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: "resume text for " + path, Pages: 1, Method: "fake"}, nil
}

// fakeProfiles records which keys it was asked about and how often. A key
// listed in blockOn parks the call until release is closed, which lets tests
// hold an item in flight across a cancellation.
type fakeProfiles struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	onCall  func(key string)
	blockOn string
	release chan struct{}
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *fakeProfiles) ExtractProfile(_ context.Context, req llm.ExtractRequest) (llm.Record, error) {
	f.mu.Lock()
	f.calls[req.Filename]++
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(req.Filename)
	}
	if req.Filename == f.blockOn {
		<-f.release
	}
	if err, ok := f.fail[req.Filename]; ok {
		return nil, err
	}
	rec := make(llm.Record, llm.FieldCount())
	for _, name := range llm.FieldNames() {
		rec[name] = "x"
	}
	rec[llm.KeyField] = req.Filename
	return rec, nil
}

func (f *fakeProfiles) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeProfiles) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func writeResumes(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func newTestOrchestrator(t *testing.T, output string, checkpointEvery int, profiles llm.ProfileExtractor) (*Orchestrator, *store.ResultStore) {
	t.Helper()
	results := store.NewResultStore(output, checkpointEvery, nil)
	return NewOrchestrator(fakeTexts{}, profiles, results, nil), results
}

func TestRunProcessesAllDiscoveredResumes(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir, "a_resume.pdf", "b_resume.pdf", "c_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	rows := readCSV(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, llm.FieldNames(), rows[0])
}

func TestRunSkipsAlreadyProcessedKeys(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir, "a_resume.pdf", "b_resume.pdf", "c_resume.pdf", "d_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	// First run covers a and b.
	prior := store.NewResultStore(out, 20, nil)
	for _, key := range []string{"a_resume.pdf", "b_resume.pdf"} {
		rec := make(llm.Record, llm.FieldCount())
		for _, name := range llm.FieldNames() {
			rec[name] = "prior"
		}
		rec[llm.KeyField] = key
		prior.RecordSuccess(rec)
	}
	require.NoError(t, prior.Finalize())
	before := readCSV(t, out)

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AlreadyDone)
	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 0, profiles.callCount("a_resume.pdf"))
	assert.Equal(t, 0, profiles.callCount("b_resume.pdf"))
	assert.Equal(t, 1, profiles.callCount("c_resume.pdf"))
	assert.Equal(t, 1, profiles.callCount("d_resume.pdf"))

	rows := readCSV(t, out)
	require.Len(t, rows, 5)
	assert.Equal(t, before[1], rows[1], "resumed row must survive verbatim")
	assert.Equal(t, before[2], rows[2], "resumed row must survive verbatim")
}

func TestRunDispatchesEachKeyAtMostOnce(t *testing.T) {
	dir := t.TempDir()
	names := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("resume_%02d.pdf", i))
	}
	writeResumes(t, dir, names...)
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	_, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 4})
	require.NoError(t, err)

	for _, name := range names {
		assert.Equal(t, 1, profiles.callCount(name), name)
	}
}

func TestRunDeduplicatesFilenamesAcrossSubdirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeResumes(t, dir, "jane_resume.pdf")
	writeResumes(t, sub, "jane_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, profiles.callCount("jane_resume.pdf"))
}

func TestRunIsolatesItemFailures(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir, "a_resume.pdf", "b_resume.pdf", "c_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	profiles.fail["b_resume.pdf"] = fmt.Errorf("%w: provider exhausted retries", common.ErrProviderTransient)

	o, results := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	rows := readCSV(t, out)
	assert.Len(t, rows, 3) // header + 2 successes

	errRows := readCSV(t, results.ErrorPath())
	require.Len(t, errRows, 2)
	assert.Equal(t, "b_resume.pdf", errRows[1][0])
	assert.Contains(t, errRows[1][3], "provider exhausted retries")
}

func TestRunCheckpointCadence(t *testing.T) {
	dir := t.TempDir()
	names := make([]string, 0, 45)
	for i := 0; i < 45; i++ {
		names = append(names, fmt.Sprintf("resume_%02d.pdf", i))
	}
	writeResumes(t, dir, names...)
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 4})
	require.NoError(t, err)

	// Two interval snapshots at 20 and 40, plus the final write.
	assert.Equal(t, 3, summary.Checkpoints)
	assert.Equal(t, 45, summary.Succeeded)
	rows := readCSV(t, out)
	assert.Len(t, rows, 46)
}

func TestRunSampleCapsDispatch(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir,
		"a_resume.pdf", "b_resume.pdf", "c_resume.pdf", "d_resume.pdf", "e_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2, Sample: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, profiles.totalCalls())
}

func TestRunSampleBelowAlreadyDoneIsNoop(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir, "a_resume.pdf", "b_resume.pdf", "c_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	prior := store.NewResultStore(out, 20, nil)
	for _, key := range []string{"a_resume.pdf", "b_resume.pdf"} {
		rec := make(llm.Record, llm.FieldCount())
		for _, name := range llm.FieldNames() {
			rec[name] = "prior"
		}
		rec[llm.KeyField] = key
		prior.RecordSuccess(rec)
	}
	require.NoError(t, prior.Finalize())

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2, Sample: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 0, profiles.totalCalls())
}

func TestRunEmptyDirectoryIsNoop(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "candidates.csv")

	profiles := newFakeProfiles()
	o, _ := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(context.Background(), RunConfig{Dir: dir, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Found)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCancellationSnapshotsAndReturnsInterrupted(t *testing.T) {
	dir := t.TempDir()
	writeResumes(t, dir, "a_resume.pdf", "b_resume.pdf", "c_resume.pdf")
	out := filepath.Join(t.TempDir(), "candidates.csv")

	ctx, cancel := context.WithCancel(context.Background())
	profiles := newFakeProfiles()
	profiles.blockOn = "c_resume.pdf"
	profiles.release = make(chan struct{})
	profiles.onCall = func(key string) {
		if key == "c_resume.pdf" {
			cancel()
		}
	}

	// One worker makes the completion order deterministic: a and b land,
	// then c cancels the run and stays in flight until released.
	o, results := newTestOrchestrator(t, out, 20, profiles)
	summary, err := o.Run(ctx, RunConfig{Dir: dir, Workers: 1})
	close(profiles.release)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 2, summary.Succeeded)

	rows := readCSV(t, results.InterruptedPath())
	assert.Len(t, rows, 3) // header + the two completed items
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "final output must not exist after an interrupt")
}
