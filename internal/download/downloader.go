// Package download fetches model weight artifacts from Hugging Face into the
// local model store, off the request path. The registry is the single place
// download progress is reported: Downloading on start, Ready on completion,
// Error (with the retained reason) on failure.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/registry"
)

const defaultBaseURL = "https://huggingface.co"

// Downloader runs background artifact transfers.
type Downloader struct {
	reg     *registry.Registry
	dir     string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	// mu makes the duplicate check and the Downloading registration one
	// atomic step, so concurrent Start calls for the same artifact cannot
	// both claim it.
	mu sync.Mutex
	wg sync.WaitGroup
}

func New(reg *registry.Registry, modelsDir string, log zerolog.Logger) *Downloader {
	return &Downloader{
		reg:     reg,
		dir:     modelsDir,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
		log:     log,
	}
}

// SetBaseURL points the downloader at a mirror (or a test server).
func (d *Downloader) SetBaseURL(u string) {
	d.baseURL = strings.TrimRight(u, "/")
}

// Start validates the repository, registers a Downloading descriptor and
// kicks off the transfer in the background. It returns the target filename
// immediately; it never blocks on the network.
func (d *Downloader) Start(repository string) (string, error) {
	filename, kind, ok := resolve(repository)
	if !ok {
		return "", invalidRepositoryError{repository: repository}
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	sub := registry.ChatSubdir
	if kind == registry.KindEmbedding {
		sub = registry.EmbeddingSubdir
	}
	path := filepath.Join(d.dir, sub, filename)

	// Reject duplicates: one transfer per artifact, and nothing to do when
	// the file is already usable. Check and registration happen under one
	// lock; otherwise two concurrent calls could both miss and both spawn
	// transfers onto the same .part file. Registration also precedes the
	// worker so list endpoints never miss the in-flight entry.
	d.mu.Lock()
	if existing, err := d.reg.Get(name); err == nil {
		switch existing.Status {
		case registry.StatusDownloading, registry.StatusReady, registry.StatusLoaded:
			d.mu.Unlock()
			return "", alreadyAvailableError{name: name, status: string(existing.Status)}
		}
	}
	d.reg.Register(registry.Descriptor{
		Name:   name,
		Path:   path,
		Kind:   kind,
		Status: registry.StatusDownloading,
	})
	d.mu.Unlock()

	d.log.Info().Str("repository", repository).Str("file", filename).Msg("download started")
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.fetch(repository, filename, name, path)
	}()
	return filename, nil
}

// Wait blocks until all in-flight transfers finish. Used at shutdown and in
// tests.
func (d *Downloader) Wait() {
	d.wg.Wait()
}

func (d *Downloader) fetch(repository, filename, name, path string) {
	start := time.Now()
	err := d.transfer(repository, filename, path)
	if err != nil {
		_ = os.Remove(path + ".part")
		_ = d.reg.SetError(name, err.Error())
		d.log.Error().Str("repository", repository).Err(err).Msg("download failed")
		return
	}
	fi, statErr := os.Stat(path)
	if statErr != nil {
		_ = d.reg.SetError(name, statErr.Error())
		d.log.Error().Str("repository", repository).Err(statErr).Msg("download failed")
		return
	}
	_ = d.reg.SetSize(name, fi.Size())
	_ = d.reg.SetStatus(name, registry.StatusReady)
	d.log.Info().
		Str("repository", repository).
		Str("file", filename).
		Int64("bytes", fi.Size()).
		Dur("dur", time.Since(start)).
		Msg("download complete")
}

func (d *Downloader) transfer(repository, filename, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	url := fmt.Sprintf("%s/%s/resolve/main/%s", d.baseURL, repository, filename)
	resp, err := d.client.Get(url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", repository, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", repository, resp.Status)
	}

	// Write to a .part file and rename so the scanner never sees a partial
	// artifact as ready.
	part := path + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", part, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", part, err)
	}
	if err := os.Rename(part, path); err != nil {
		return fmt.Errorf("rename %s: %w", part, err)
	}
	return nil
}
