package types

import "time"

// DocumentEvent describes one document-added notification: an object key
// inside a bucket (or a file inside a watched directory).
type DocumentEvent struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// DocumentMeta is the source provenance carried onto every chunk of a
// document. It is propagated unchanged from the document to each index entry.
type DocumentMeta struct {
	Source  string
	S3Key   string
	URL     string
	Title   string
	Section string
	Tags    []string
}

// IndexEntry is the persisted representation of one chunk inside the vector
// index. Entries are immutable once written; re-ingesting a source key
// rewrites the same (DocID, ChunkID) slots.
type IndexEntry struct {
	DocID      string
	ChunkID    int
	ChunkText  string
	Embedding  []float32
	Meta       DocumentMeta
	TokenCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Snippet is one retrieved context fragment, ordered by descending score.
type Snippet struct {
	Text   string
	Source string
	Score  float64
}

// IngestResult summarizes one ingestion invocation.
type IngestResult struct {
	DocumentsProcessed int `json:"documents_processed"`
	ChunksIndexed      int `json:"chunks_indexed"`
}
