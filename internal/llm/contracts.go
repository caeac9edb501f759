package llm

import "context"

// Record is one extracted candidate profile, keyed by field name.
// Values are CSV-ready strings formatted per the field's declared kind;
// KeyField always carries the originating resume's filename.
// A Record is immutable once produced.
type Record map[string]string

// Key returns the work-item key (the resume filename) for this record.
func (r Record) Key() string {
	return r[KeyField]
}

// ExtractRequest carries one resume's text into the extractor.
type ExtractRequest struct {
	ResumeText string
	Filename   string
}

// ProfileExtractor is the interface the pipeline depends on.
// Implementations must be safe for concurrent use by multiple workers.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, req ExtractRequest) (Record, error)
}
