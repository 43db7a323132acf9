package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DiscoverFiles lists the regular files directly inside dir whose extension
// matches one of exts (case-insensitive), sorted by name. Subdirectories are
// not searched.
func DiscoverFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	wanted := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted = append(wanted, ext)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if len(wanted) > 0 && !slices.Contains(wanted, ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	// ReadDir already sorts, but callers rely on this
	slices.Sort(files)
	return files, nil
}
