//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_GenerateEmbedding_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()
	text := "This is a test document for generating embeddings."

	embedding, err := client.GenerateEmbedding(ctx, text)

	require.NoError(t, err)
	assert.Len(t, embedding, DefaultEmbeddingDimensions)
}

func TestIntegration_CreateEmbeddingsFromSentences_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()
	sentences := []string{
		"Invoices are due within thirty days.",
		"Late payments accrue a two percent monthly fee.",
	}

	embeddings, err := client.CreateEmbeddingsFromSentences(ctx, sentences)

	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	for _, e := range embeddings {
		assert.Len(t, e, DefaultEmbeddingDimensions)
	}
}
