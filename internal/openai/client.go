package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for composing answers
	DefaultChatModel = openai.GPT4oMini
	// embeddingBatchSize caps how many sentences go into one API request
	embeddingBatchSize = 256
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for embedding and completion calls
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateCompletion(ctx context.Context, system, user string) (string, error)
}

// Client wraps the OpenAI API client
type Client struct {
	api        EmbeddingAPI
	dimensions int
}

type OpenAIAdapter struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	chatModel string
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel, chatModel string) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &OpenAIAdapter{
		client:    openai.NewClient(apiKey),
		model:     model,
		chatModel: chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings for a batch of texts
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// CreateCompletion calls the chat API with a system and user message
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel),
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for a single text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	embeddings, err := c.CreateEmbeddingsFromSentences(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// CreateEmbeddingsFromSentences generates embeddings for a batch of
// sentences, preserving order. The batch is split into API-sized
// chunks internally.
func (c *Client) CreateEmbeddingsFromSentences(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return nil, ErrEmptyText
	}
	for _, s := range sentences {
		if strings.TrimSpace(s) == "" {
			return nil, ErrEmptyText
		}
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}

	out := make([][]float32, 0, len(sentences))
	for start := 0; start < len(sentences); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(sentences) {
			end = len(sentences)
		}

		batch, err := c.api.CreateEmbeddings(ctx, sentences[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		for _, e := range batch {
			if len(e) != expected {
				return nil, ErrWrongDimensions
			}
		}
		out = append(out, batch...)
	}
	return out, nil
}

// ComposeAnswer asks the chat model to answer a question from the
// given context passages.
func (c *Client) ComposeAnswer(ctx context.Context, question string, passages []string) (string, error) {
	if question == "" {
		return "", ErrEmptyText
	}

	system := "You answer questions using only the provided document excerpts. " +
		"If the excerpts do not contain the answer, say so plainly."
	user := fmt.Sprintf("Excerpts:\n%s\n\nQuestion: %s", strings.Join(passages, "\n---\n"), question)

	answer, err := c.api.CreateCompletion(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("failed to compose answer: %w", err)
	}
	return answer, nil
}
