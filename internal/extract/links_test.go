package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentforge/resume-extractor/internal/common"
)

func TestHarvestLinksClassifiesAndDedupes(t *testing.T) {
	raw := []byte(`
<< /Type /Annot /A << /S /URI /URI (https://github.com/jdoe) >> >>
<< /Type /Annot /A << /S /URI /URI (https://www.linkedin.com/in/jdoe) >> >>
<< /Type /Annot /A << /S /URI /URI (https://jdoe.dev) >> >>
<< /Type /Annot /A << /S /URI /URI (https://github.com/jdoe) >> >>
`)
	links := HarvestLinks(raw)
	require.Len(t, links, 3)
	assert.Equal(t, Link{URL: "https://github.com/jdoe", Kind: LinkGitHub}, links[0])
	assert.Equal(t, Link{URL: "https://www.linkedin.com/in/jdoe", Kind: LinkLinkedIn}, links[1])
	assert.Equal(t, Link{URL: "https://jdoe.dev", Kind: LinkGeneric}, links[2])
}

func TestHarvestLinksUnescapesParens(t *testing.T) {
	raw := []byte(`/URI (https://example.com/p\(1\))`)
	links := HarvestLinks(raw)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/p(1)", links[0].URL)
}

func TestHarvestLinksEmptyInput(t *testing.T) {
	assert.Nil(t, HarvestLinks([]byte("no annotations here")))
}

func TestAnnotateLinksAppendsKindPrefixedLines(t *testing.T) {
	text := "Jane Doe\nSoftware Engineer"
	out := AnnotateLinks(text, []Link{
		{URL: "https://github.com/jdoe", Kind: LinkGitHub},
		{URL: "https://jdoe.dev", Kind: LinkGeneric},
	})
	assert.True(t, strings.HasPrefix(out, text))
	assert.Contains(t, out, "\nGitHub: https://github.com/jdoe")
	assert.Contains(t, out, "\nLink: https://jdoe.dev")
}

func TestAnnotateLinksNoLinksReturnsTextUnchanged(t *testing.T) {
	assert.Equal(t, "plain", AnnotateLinks("plain", nil))
}

func TestExtractMissingFileIsEmptyText(t *testing.T) {
	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptyText)
}

func TestExtractGarbageFileIsEmptyText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane_resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptyText)
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewPDFExtractor(nil)
	_, err := e.Extract(ctx, "anything.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
