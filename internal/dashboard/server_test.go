package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDashboard(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DashboardFile), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candidates.csv"), []byte("resume_filename\n"), 0o644))
	return dir
}

func TestCheckRequiresPageAndCSV(t *testing.T) {
	dir := seedDashboard(t)
	require.NoError(t, NewServer(dir, "candidates.csv", nil).Check())

	assert.Error(t, NewServer(dir, "missing.csv", nil).Check())
	assert.Error(t, NewServer(t.TempDir(), "candidates.csv", nil).Check())
}

func TestHandlerSetsCORSHeaders(t *testing.T) {
	dir := seedDashboard(t)
	h := NewServer(dir, "candidates.csv", nil).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/candidates.csv", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestHandlerAnswersPreflight(t *testing.T) {
	dir := seedDashboard(t)
	h := NewServer(dir, "candidates.csv", nil).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/candidates.csv", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Body.String())
}

func TestBuildResumePathIndex(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"batch1", "batch2", ".hidden"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch1", "jane_resume.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch2", "john_resume.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch2", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden", "secret_resume.pdf"), []byte("%PDF"), 0o644))

	index, err := BuildResumePathIndex(root, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"jane_resume.pdf": filepath.Join("batch1", "jane_resume.pdf"),
		"john_resume.pdf": filepath.Join("batch2", "john_resume.pdf"),
	}, index)
}

func TestBuildResumePathIndexNamedDirs(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"batch1", "batch2"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch1", "jane_resume.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch2", "john_resume.pdf"), []byte("%PDF"), 0o644))

	index, err := BuildResumePathIndex(root, []string{"batch1", "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"jane_resume.pdf": filepath.Join("batch1", "jane_resume.pdf"),
	}, index)
}

func TestWriteResumePathIndexRoundTrip(t *testing.T) {
	root := t.TempDir()
	in := map[string]string{"jane_resume.pdf": "batch1/jane_resume.pdf"}
	require.NoError(t, WriteResumePathIndex(root, in))

	b, err := os.ReadFile(filepath.Join(root, PathIndexFile))
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}
