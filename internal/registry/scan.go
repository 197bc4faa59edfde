package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
)

// Subdirectories of the models dir, one per model kind.
const (
	ChatSubdir      = "chat"
	EmbeddingSubdir = "embed"
)

// Scan rebuilds the descriptor table from *.gguf files under dir/chat and
// dir/embed. It is idempotent and safe to run concurrently with reads:
// the new snapshot is built off-lock and swapped in atomically. Descriptors
// that are mid-operation survive the swap: an in-flight download keeps its
// Downloading entry even though the file is still partial, and a file that
// is currently loaded keeps StatusLoaded.
func (r *Registry) Scan(dir string) error {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("abs path: %w", err)
	}

	fresh := make(map[string]Descriptor)
	for sub, kind := range map[string]Kind{ChatSubdir: KindChat, EmbeddingSubdir: KindEmbedding} {
		if err := scanKind(filepath.Join(abs, sub), kind, fresh); err != nil {
			return err
		}
	}

	r.mu.Lock()
	for name, old := range r.byName {
		if _, onDisk := fresh[name]; onDisk {
			if old.Status == StatusLoaded {
				d := fresh[name]
				d.Status = StatusLoaded
				fresh[name] = d
			}
			continue
		}
		if old.Status == StatusDownloading {
			fresh[name] = old
		}
	}
	r.byName = fresh
	r.mu.Unlock()
	return nil
}

func scanKind(dir string, kind Kind, out map[string]Descriptor) error {
	if !fsutil.PathExists(dir) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".gguf") {
			return nil
		}
		fi, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		out[name] = Descriptor{
			Name:      name,
			Path:      path,
			Kind:      kind,
			SizeBytes: fi.Size(),
			Status:    StatusReady,
		}
		return nil
	})
}
