package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbrag/config"
	"kbrag/types"
)

type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("get object %s/%s: not found", bucket, key)
	}
	return data, nil
}

type fakeEmbedder struct {
	calls   int
	failOn  string
	failErr error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, f.failErr
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

type fakeIndex struct {
	schemaCalls int
	entries     []types.IndexEntry
	byKey       map[string]types.IndexEntry
	failAtChunk int // -1 disables
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{byKey: map[string]types.IndexEntry{}, failAtChunk: -1}
}

func (f *fakeIndex) EnsureSchema(_ context.Context) { f.schemaCalls++ }

func (f *fakeIndex) Upsert(_ context.Context, e types.IndexEntry) error {
	if f.failAtChunk >= 0 && e.ChunkID == f.failAtChunk {
		return errors.New("index write failed")
	}
	f.entries = append(f.entries, e)
	f.byKey[fmt.Sprintf("%s/%d", e.DocID, e.ChunkID)] = e
	return nil
}

func testConfig() config.Config {
	return config.Config{ChunkMaxLen: 20}
}

func newTestService(store *fakeObjectStore, emb *fakeEmbedder, idx *fakeIndex) *Service {
	return New(testConfig(), store, emb, idx)
}

func TestIngestIndexesEveryChunkInOrder(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"docs/guides/setup.txt": []byte("alpha beta gamma delta epsilon zeta eta theta iota kappa"),
	}}
	emb := &fakeEmbedder{}
	idx := newFakeIndex()
	s := newTestService(store, emb, idx)

	res, err := s.Ingest(context.Background(), []types.DocumentEvent{
		{Bucket: "docs", Key: "guides/setup.txt"},
	})
	require.NoError(t, err)
	require.Greater(t, len(idx.entries), 1, "max_len 20 must force multiple chunks")

	assert.Equal(t, 1, res.DocumentsProcessed)
	assert.Equal(t, len(idx.entries), res.ChunksIndexed)
	assert.Equal(t, len(idx.entries), emb.calls)
	assert.Equal(t, 1, idx.schemaCalls)

	docID := DocID("guides/setup.txt")
	for i, e := range idx.entries {
		assert.Equal(t, docID, e.DocID)
		assert.Equal(t, i, e.ChunkID)
		assert.Equal(t, "s3", e.Meta.Source)
		assert.Equal(t, "guides/setup.txt", e.Meta.S3Key)
		assert.Equal(t, "setup", e.Meta.Title)
		assert.Greater(t, e.TokenCount, 0)
		assert.NotEmpty(t, e.Embedding)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestIngestChunkFailureAbortsDocument(t *testing.T) {
	// chunks: "alpha beta", "gamma delta", "POISON epsilon", ...
	store := &fakeObjectStore{objects: map[string][]byte{
		"docs/bad.txt": []byte("alpha beta gamma delta POISON epsilon zeta eta"),
	}}
	emb := &fakeEmbedder{failOn: "POISON", failErr: errors.New("model down")}
	idx := newFakeIndex()
	s := newTestService(store, emb, idx)

	res, err := s.Ingest(context.Background(), []types.DocumentEvent{
		{Bucket: "docs", Key: "bad.txt"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt")
	assert.Contains(t, err.Error(), "model down")

	// chunks indexed before the failure stay indexed; nothing after it runs
	assert.NotEmpty(t, idx.entries, "prior chunks stay indexed")
	assert.Equal(t, len(idx.entries), res.ChunksIndexed)
	assert.Zero(t, res.DocumentsProcessed)
	for _, e := range idx.entries {
		assert.NotContains(t, e.ChunkText, "POISON")
	}
}

func TestIngestBatchFailsFast(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"docs/ok.txt": []byte("alpha beta gamma"),
	}}
	emb := &fakeEmbedder{}
	idx := newFakeIndex()
	s := newTestService(store, emb, idx)

	res, err := s.Ingest(context.Background(), []types.DocumentEvent{
		{Bucket: "docs", Key: "missing.txt"},
		{Bucket: "docs", Key: "ok.txt"},
	})
	require.Error(t, err)
	assert.Zero(t, res.DocumentsProcessed)
	assert.Empty(t, idx.entries, "later events are not processed after a failure")
	assert.Zero(t, emb.calls)
}

func TestIngestIndexWriteFailure(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"docs/doc.txt": []byte("alpha beta gamma delta epsilon zeta eta theta"),
	}}
	idx := newFakeIndex()
	idx.failAtChunk = 1
	s := newTestService(store, &fakeEmbedder{}, idx)

	res, err := s.Ingest(context.Background(), []types.DocumentEvent{
		{Bucket: "docs", Key: "doc.txt"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, res.ChunksIndexed)
	require.Len(t, idx.entries, 1)
	assert.Equal(t, 0, idx.entries[0].ChunkID)
}

func TestReingestOverwritesSameSlots(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"docs/doc.txt": []byte("alpha beta gamma delta epsilon zeta"),
	}}
	idx := newFakeIndex()
	s := newTestService(store, &fakeEmbedder{}, idx)

	events := []types.DocumentEvent{{Bucket: "docs", Key: "doc.txt"}}
	_, err := s.Ingest(context.Background(), events)
	require.NoError(t, err)
	firstKeyed := len(idx.byKey)

	_, err = s.Ingest(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, firstKeyed, len(idx.byKey), "same (doc_id, chunk_id) slots are rewritten")
	assert.Equal(t, 2*firstKeyed, len(idx.entries), "every chunk was written twice")
	assert.Equal(t, 2, idx.schemaCalls, "schema is ensured on every invocation")
}

func TestDocIDDeterministic(t *testing.T) {
	assert.Equal(t, DocID("docs/a.txt"), DocID("docs/a.txt"))
	assert.NotEqual(t, DocID("docs/a.txt"), DocID("docs/b.txt"))
	// md5 hex of the key, not of the content
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", DocID("abc"))
}

func TestTitleFromKey(t *testing.T) {
	assert.Equal(t, "getting started", titleFromKey("docs/getting_started.txt"))
	assert.Equal(t, "release notes", titleFromKey("release-notes.pdf"))
}
