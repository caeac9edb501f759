package constants

import (
	"path/filepath"
	"strings"
)

// ResumeExtension is the only document format the pipeline accepts.
const ResumeExtension = "pdf"

// MinResumeTextChars is the floor below which extracted text is treated as
// unreadable (image-only scans typically land here).
const MinResumeTextChars = 50

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsResumeFile reports whether a filename matches the expected naming
// convention: a .pdf whose name mentions "resume".
func IsResumeFile(name string) bool {
	if NormalizeExt(filepath.Ext(name)) != ResumeExtension {
		return false
	}
	return strings.Contains(strings.ToLower(name), "resume")
}
