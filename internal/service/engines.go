package service

import (
	"context"

	"github.com/doclink-ai/doclink/internal/domain"
)

// ExtractedFile is the extraction engine's output: parallel columns,
// one element per sentence.
type ExtractedFile struct {
	Sentences   []string
	PageNumbers []int
	IsHeaders   []bool
	IsTables    []bool
}

// Extractor is the text-extraction engine boundary. An empty Sentences
// result is a terminal rejection, not an engine failure.
type Extractor interface {
	ReadFile(ctx context.Context, name string, data []byte) (*ExtractedFile, error)
}

// Embedder is the embedding engine boundary.
type Embedder interface {
	CreateEmbeddingsFromSentences(ctx context.Context, sentences []string) ([][]float32, error)
}

// URLFetcher retrieves the raw content behind a URL for ingestion.
type URLFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FilteredIndex is the search engine's prepared view of a working set
// restricted to the caller's selected files.
type FilteredIndex struct {
	Content     []domain.WorkingSetUnit
	Embeddings  [][]float32
	BoostInfo   map[string]float32
	IndexHeader []string
}

// SearchAnswer is the search engine's response to one question.
type SearchAnswer struct {
	Answer            string
	Resources         []string
	ResourceSentences []string
}

// SearchEngine is the semantic search / answer-ranking boundary. The
// caller guarantees that content and embeddings come from the
// currently consistent working set and that fileIDs is a subset of its
// membership.
type SearchEngine interface {
	FilterSearch(content []domain.WorkingSetUnit, embeddings [][]float32, fileIDs []string) (*FilteredIndex, error)
	SearchIndex(ctx context.Context, query string, idx *FilteredIndex) (*SearchAnswer, error)
}

// SentenceCipher seals and opens sentences bound to a file ID.
type SentenceCipher interface {
	Encrypt(plaintext string, fileID string) ([]byte, error)
	Decrypt(ciphertext []byte, fileID string) (string, error)
}

// UploadArchiver stores raw upload bytes in object storage. Optional;
// a nil archiver disables archival.
type UploadArchiver interface {
	Archive(ctx context.Context, userID, fileName string, data []byte) error
}
