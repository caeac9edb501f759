package dashboard

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/talentforge/resume-extractor/constants"
)

// PathIndexFile maps resume filename -> path relative to the served root, so
// the dashboard can link each row back to its source document.
const PathIndexFile = "resume_paths.json"

// BuildResumePathIndex walks the given subdirectories of root (or, when none
// are named, every non-hidden subdirectory) and indexes each PDF it finds.
func BuildResumePathIndex(root string, dirs []string) (map[string]string, error) {
	var search []string
	if len(dirs) > 0 {
		for _, d := range dirs {
			full := filepath.Join(root, d)
			if st, err := os.Stat(full); err == nil && st.IsDir() {
				search = append(search, full)
			}
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				search = append(search, filepath.Join(root, e.Name()))
			}
		}
	}

	index := make(map[string]string)
	for _, dir := range search {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return nil
			}
			if constants.NormalizeExt(filepath.Ext(d.Name())) != constants.ResumeExtension {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			index[d.Name()] = rel
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return index, nil
}

// WriteResumePathIndex persists the index as indented JSON under root.
func WriteResumePathIndex(root string, index map[string]string) error {
	b, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, PathIndexFile), b, 0o644)
}
