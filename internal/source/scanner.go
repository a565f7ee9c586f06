package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// exportExts are the file extensions treated as record exports.
var exportExts = map[string]bool{".jsonl": true, ".ndjson": true}

// ScanDir walks dataDir and discovers every export file beneath it, sorted by path.
// A missing directory yields no files and no error.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(dataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dataDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !exportExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, _ := filepath.Rel(dataDir, path)
		files = append(files, DiscoveredFile{Path: path, Name: rel})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}
