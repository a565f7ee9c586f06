package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/opsdash/internal/source"
	"github.com/theirongolddev/opsdash/internal/store"
)

// SyncResult reports what a cache sync did.
type SyncResult struct {
	TotalFiles  int
	CacheHits   int
	Reparsed    int
	Removed     int
	ParseErrors int
	FileErrors  int
}

// SyncCache discovers export files, diffs them against the cache by mtime and
// size, reparses only changed files and drops files that disappeared. The
// store then serves the complete record set as a Source.
func SyncCache(dataDir string, st *store.Store, progressFn ProgressFunc) (*SyncResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &SyncResult{TotalFiles: len(files)}

	type stamp struct{ mtimeNs, size int64 }
	var toReparse []source.DiscoveredFile
	var stamps []stamp
	present := make(map[string]struct{}, len(files))

	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			continue
		}
		cur := stamp{info.ModTime().UnixNano(), info.Size()}
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == cur.mtimeNs && cached.SizeBytes == cur.size {
			result.CacheHits++
			continue
		}
		toReparse = append(toReparse, f)
		stamps = append(stamps, cur)
	}

	for path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := st.RemoveFile(path); err != nil {
			return nil, fmt.Errorf("evicting %s: %w", path, err)
		}
		result.Removed++
	}

	if progressFn != nil && result.CacheHits > 0 {
		progressFn(result.CacheHits, result.TotalFiles)
	}
	if len(toReparse) == 0 {
		return result, nil
	}

	for i, pr := range parseAll(toReparse, result.CacheHits, result.TotalFiles, progressFn) {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.Reparsed++
		result.ParseErrors += pr.ParseErrors
		if err := st.SaveFile(toReparse[i].Path, pr.Records, stamps[i].mtimeNs, stamps[i].size); err != nil {
			return nil, fmt.Errorf("caching %s: %w", toReparse[i].Name, err)
		}
	}
	return result, nil
}

// DataDir returns the default export directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "opsdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "opsdash")
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "opsdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "opsdash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "records.db")
}
