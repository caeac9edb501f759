package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"github.com/talentforge/resume-extractor/constants"
	"github.com/talentforge/resume-extractor/internal/common"
)

// PDFExtractor turns one resume PDF into plain text with harvested links.
// Primary reader is docconv; on any primary failure it falls back to a
// page-by-page pure-Go reader. Empty or near-empty output is an
// ErrEmptyText, terminal for the item.
type PDFExtractor struct {
	log      *slog.Logger
	minChars int
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{log: logger, minChars: constants.MinResumeTextChars}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return TextExtractionResult{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("%w: read %s: %v", common.ErrEmptyText, path, err)
	}

	res := TextExtractionResult{Method: "docconv"}
	text, pages, err := e.convertPrimary(raw)
	if err != nil {
		e.log.Warn("extract.primary_failed", "path", path, "error", err)
		text, pages, err = readPagewise(raw)
		if err != nil {
			e.log.Error("extract.fallback_failed", "path", path, "error", err)
			return TextExtractionResult{}, fmt.Errorf("%w: %v", common.ErrEmptyText, err)
		}
		res.Method = "pdf-pagewise"
	}
	res.Pages = pages

	res.Links = HarvestLinks(raw)
	res.Text = AnnotateLinks(text, res.Links)
	res.Duration = time.Since(start)

	if len(strings.TrimSpace(text)) < e.minChars {
		// Usually an image-only scan; partial text is never upgraded to success.
		return TextExtractionResult{}, fmt.Errorf("%w: %s yielded %d chars", common.ErrEmptyText, path, len(strings.TrimSpace(text)))
	}
	return res, nil
}

func (e *PDFExtractor) convertPrimary(raw []byte) (string, int, error) {
	resp, err := docconv.Convert(bytes.NewReader(raw), "application/pdf", true)
	if err != nil {
		return "", 0, fmt.Errorf("docconv: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Body) == "" {
		return "", 0, fmt.Errorf("docconv returned no text")
	}
	// docconv separates pages with form feeds.
	pages := 1 + strings.Count(resp.Body, "\f")
	return resp.Body, pages, nil
}

// readPagewise is the fallback: plain text page by page, no layout, no links.
func readPagewise(raw []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// keep going; a single broken page should not sink the document
			continue
		}
		b.WriteString(pageText)
	}
	return b.String(), total, nil
}
