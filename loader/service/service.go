package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"kbrag/chunker"
	"kbrag/config"
	"kbrag/loader/internal"
	"kbrag/logbuf"
	"kbrag/model"
	"kbrag/types"
)

// Indexer is the slice of the vector index contract ingestion needs.
type Indexer interface {
	EnsureSchema(ctx context.Context)
	Upsert(ctx context.Context, entry types.IndexEntry) error
}

// Service is the ingestion pipeline: fetch, chunk, embed, index. One
// invocation processes a batch of document events strictly sequentially.
type Service struct {
	cfg      config.Config
	store    internal.ObjectStore
	embedder model.Embedder
	index    Indexer
}

func New(cfg config.Config, store internal.ObjectStore, embedder model.Embedder, index Indexer) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		index:    index,
	}
}

// DocID derives the stable document identity from the source key. It is a
// hash of the key, not of the content, so re-ingesting the same key lands
// on the same id.
func DocID(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Ingest processes a batch of document events. The batch fails fast: an
// error embedding or indexing any chunk aborts the rest of that document
// and the remaining events, but chunks already indexed stay indexed. The
// partial result is returned alongside the error.
func (s *Service) Ingest(ctx context.Context, events []types.DocumentEvent) (types.IngestResult, error) {
	logger, buf := logbuf.New(s.cfg.LogLevel)
	defer buf.Flush()

	logger.Info("ingestion invocation started", "record_count", len(events))

	s.index.EnsureSchema(ctx)

	var res types.IngestResult
	for i, ev := range events {
		logger.Info("processing record",
			"record", i+1, "of", len(events), "bucket", ev.Bucket, "key", ev.Key)

		indexed, err := s.ingestDocument(ctx, logger, ev)
		res.ChunksIndexed += indexed
		if err != nil {
			logger.Error("document ingestion failed", "key", ev.Key, "error", err)
			return res, fmt.Errorf("ingest %s: %w", ev.Key, err)
		}
		res.DocumentsProcessed++
	}

	logger.Info("ingestion invocation completed",
		"documents_processed", res.DocumentsProcessed, "chunks_indexed", res.ChunksIndexed)
	return res, nil
}

func (s *Service) ingestDocument(ctx context.Context, logger *slog.Logger, ev types.DocumentEvent) (int, error) {
	data, err := s.store.Get(ctx, ev.Bucket, ev.Key)
	if err != nil {
		return 0, err
	}

	text := string(data)
	if strings.EqualFold(filepath.Ext(ev.Key), ".pdf") {
		text, err = internal.ExtractPDFText(data)
		if err != nil {
			return 0, err
		}
	}
	logger.Info("document loaded", "key", ev.Key, "text_size", len(text))

	docID := DocID(ev.Key)
	meta := types.DocumentMeta{
		Source: "s3",
		S3Key:  ev.Key,
		Title:  titleFromKey(ev.Key),
	}

	chunks := chunker.Chunk(text, s.cfg.ChunkMaxLen)
	logger.Info("chunking complete", "doc_id", docID, "total_chunks", len(chunks))

	now := time.Now().UTC()
	indexed := 0
	for i, chunkText := range chunks {
		vec, err := s.embedder.Embed(ctx, chunkText)
		if err != nil {
			return indexed, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		entry := types.IndexEntry{
			DocID:      docID,
			ChunkID:    i,
			ChunkText:  chunkText,
			Embedding:  vec,
			Meta:       meta,
			TokenCount: chunker.TokenCount(chunkText),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			return indexed, err
		}
		indexed++
		logger.Debug("chunk indexed", "doc_id", docID, "chunk_id", i)
	}

	logger.Info("document processed", "doc_id", docID, "chunks_indexed", indexed)
	return indexed, nil
}

// titleFromKey turns an object key into a readable title.
func titleFromKey(key string) string {
	name := filepath.Base(key)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// Run drives directory-watch mode: files dropped into the source dir become
// single-event batches, then move to the archive dir (or the bad dir on
// failure). Blocks until SIGINT/SIGTERM.
func (s *Service) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.Default()
	watcher := internal.NewWatcher(s.cfg.SourceDir, s.cfg.MonitoringTime, logger)

	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		watcher.Watch(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for name := range fileChan {
			events := []types.DocumentEvent{{Bucket: "", Key: name}}
			res, err := s.Ingest(ctx, events)
			if err != nil {
				logger.Error("ingestion failed", "file", name, "error", err)
				if err := watcher.MoveTo(name, s.cfg.BadDir); err != nil {
					logger.Error("move to bad dir", "file", name, "error", err)
				}
			} else {
				logger.Info("file ingested", "file", name, "chunks_indexed", res.ChunksIndexed)
				if err := watcher.MoveTo(name, s.cfg.ArchiveDir); err != nil {
					logger.Error("move to archive", "file", name, "error", err)
				}
			}
			watcher.Done(name)

			if ctx.Err() != nil {
				return
			}
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	logger.Info("received shutdown signal, stopping loader")

	cancel()
	signal.Stop(sigch)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("loader stopped")
	case <-time.After(5 * time.Second):
		logger.Warn("timeout waiting for workers, forcing shutdown")
	}
}
