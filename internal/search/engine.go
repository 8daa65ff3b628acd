// Package search ranks working-set sentences against a question and
// composes an answer from the best matches.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/service"
)

const (
	// topK is how many ranked sentences feed the answer composer.
	topK = 10
	// headerBoost nudges section headers up; they anchor the
	// surrounding content even when their own similarity is middling.
	headerBoost = 0.05
	// tablePenalty nudges table rows down; their fragments embed
	// poorly and tend to rank above prose they should not.
	tablePenalty = 0.03
)

// Embedder produces the query embedding.
type Embedder interface {
	CreateEmbeddingsFromSentences(ctx context.Context, sentences []string) ([][]float32, error)
}

// Composer turns ranked passages into a final answer.
type Composer interface {
	ComposeAnswer(ctx context.Context, question string, passages []string) (string, error)
}

// Engine is the cosine-similarity search engine over a user's working
// set. It is stateless; every call carries its own index.
type Engine struct {
	embedder Embedder
	composer Composer
}

func NewEngine(embedder Embedder, composer Composer) *Engine {
	return &Engine{embedder: embedder, composer: composer}
}

// FilterSearch restricts a working set to the given files and builds
// the per-query index: surviving content, its embeddings, header
// boosts, and the list of section headers.
func (e *Engine) FilterSearch(content []domain.WorkingSetUnit, embeddings [][]float32, fileIDs []string) (*service.FilteredIndex, error) {
	if len(content) != len(embeddings) {
		return nil, fmt.Errorf("content and embeddings are misaligned: %d vs %d", len(content), len(embeddings))
	}

	allowed := make(map[string]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		allowed[id] = struct{}{}
	}

	idx := &service.FilteredIndex{BoostInfo: make(map[string]float32)}
	for i, unit := range content {
		if _, ok := allowed[unit.FileID]; !ok {
			continue
		}
		idx.Content = append(idx.Content, unit)
		idx.Embeddings = append(idx.Embeddings, embeddings[i])
		if unit.IsHeader {
			idx.IndexHeader = append(idx.IndexHeader, unit.Sentence)
			idx.BoostInfo[unit.Sentence] = headerBoost
		}
		if unit.IsTable {
			idx.BoostInfo[unit.Sentence] = -tablePenalty
		}
	}
	return idx, nil
}

type scoredUnit struct {
	unit  domain.WorkingSetUnit
	score float32
}

// SearchIndex embeds the question, ranks the index by boosted cosine
// similarity, and composes an answer from the top matches.
func (e *Engine) SearchIndex(ctx context.Context, query string, idx *service.FilteredIndex) (*service.SearchAnswer, error) {
	if len(idx.Content) == 0 {
		return &service.SearchAnswer{Answer: ""}, nil
	}

	queryEmbeddings, err := e.embedder.CreateEmbeddingsFromSentences(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := queryEmbeddings[0]

	scored := make([]scoredUnit, 0, len(idx.Content))
	for i, unit := range idx.Content {
		score := cosineSimilarity(queryVec, idx.Embeddings[i])
		score += idx.BoostInfo[unit.Sentence]
		scored = append(scored, scoredUnit{unit: unit, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	k := topK
	if k > len(scored) {
		k = len(scored)
	}

	answer := &service.SearchAnswer{}
	passages := make([]string, 0, k)
	seenFiles := make(map[string]struct{})
	for _, s := range scored[:k] {
		passages = append(passages, s.unit.Sentence)
		answer.ResourceSentences = append(answer.ResourceSentences, s.unit.Sentence)
		if _, ok := seenFiles[s.unit.FileName]; !ok {
			seenFiles[s.unit.FileName] = struct{}{}
			answer.Resources = append(answer.Resources, s.unit.FileName)
		}
	}

	text, err := e.composer.ComposeAnswer(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("composing answer: %w", err)
	}
	answer.Answer = text
	return answer, nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either vector is degenerate.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
