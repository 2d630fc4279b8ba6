package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Watcher polls a source directory and emits file names once they have
// stopped changing for the settle interval. A file stays tracked until the
// consumer reports it done, so it is never emitted twice concurrently.
type Watcher struct {
	sourceDir string
	settle    time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
}

func NewWatcher(sourceDir string, settle time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		sourceDir:  sourceDir,
		settle:     settle,
		logger:     logger,
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
	}
}

// Watch scans the source directory every second and sends settled file
// names to out. It returns when ctx is cancelled; it does not close out.
func (w *Watcher) Watch(ctx context.Context, out chan<- string) {
	w.logger.Info("watching source directory", "dir", w.sourceDir)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return
		case <-ticker.C:
			w.scan(ctx, out)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, out chan<- string) {
	files, err := os.ReadDir(w.sourceDir)
	if err != nil {
		w.logger.Error("read source directory", "error", err)
		return
	}

	current := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		current[name] = true

		w.mu.Lock()
		if w.processing[name] {
			w.mu.Unlock()
			continue
		}
		seen, tracked := w.firstSeen[name]
		if !tracked {
			w.firstSeen[name] = time.Now()
			w.logger.Info("new file detected", "file", name)
			w.mu.Unlock()
			continue
		}
		ready := time.Since(seen) > w.settle
		if ready {
			w.processing[name] = true
		}
		w.mu.Unlock()

		if !ready {
			continue
		}
		select {
		case out <- name:
		case <-ctx.Done():
			return
		}
	}

	// forget files that disappeared from the directory
	w.mu.Lock()
	for name := range w.firstSeen {
		if !current[name] && !w.processing[name] {
			delete(w.firstSeen, name)
		}
	}
	w.mu.Unlock()
}

// Done releases a file from the processing set after the consumer moved it
// out of the source directory.
func (w *Watcher) Done(name string) {
	w.mu.Lock()
	delete(w.processing, name)
	delete(w.firstSeen, name)
	w.mu.Unlock()
}

// MoveTo moves a processed file out of the source directory into a dated
// subdirectory of dest, renaming on name conflicts.
func (w *Watcher) MoveTo(name, dest string) error {
	destDir := filepath.Join(dest, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	srcPath := filepath.Join(w.sourceDir, name)
	destPath := filepath.Join(destDir, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}

	if err := os.Rename(srcPath, destPath); err == nil {
		w.logger.Info("file moved", "from", srcPath, "to", destPath)
		return nil
	}

	// cross-device fallback: copy then remove
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	w.logger.Info("file moved", "from", srcPath, "to", destPath)
	return os.Remove(srcPath)
}
