package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"golang.org/x/sync/semaphore"
)

// RAGOpenAIClient talks to OpenAI-compatible endpoints for the chat and
// embedding capabilities of the ingestion and retrieval pipelines. Separate
// clients for chat and embeddings allow pointing them at different endpoints.
//
// A RAGOpenAIClient should be created using NewRAGOpenAIClient.
type RAGOpenAIClient struct {
	chatModel      string
	embeddingModel string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	timeoutMin    int
	embeddingLock *semaphore.Weighted

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewRAGOpenAIClientParams defines the configuration for creating a
// RAGOpenAIClient.
//
// ChatModel is used for completions and structured extraction.
// EmbeddingModel is used for vector embeddings.
// The URL/Key pairs configure the respective API endpoints; an empty URL
// means the official OpenAI endpoint.
type NewRAGOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	TimeoutMin         int
	ParallelEmbeddings int64
}

// NewRAGOpenAIClient creates a client configured with the provided
// parameters.
//
// Example:
//
//	client := openai.NewRAGOpenAIClient(openai.NewRAGOpenAIClientParams{
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingModel: "text-embedding-3-small",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	})
func NewRAGOpenAIClient(params NewRAGOpenAIClientParams) *RAGOpenAIClient {
	timeout := params.TimeoutMin
	if timeout <= 0 {
		timeout = 5
	}
	parallel := params.ParallelEmbeddings
	if parallel <= 0 {
		parallel = 4
	}

	return &RAGOpenAIClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin:    timeout,
		embeddingLock: semaphore.NewWeighted(parallel),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}
