// Package providers selects the AI backend from the environment, shared
// by the API server and the worker.
package providers

import (
	"github.com/docsage/backend/internal/util"
	"github.com/docsage/backend/pkg/ai"
	oll "github.com/docsage/backend/pkg/ai/ollama"
	oai "github.com/docsage/backend/pkg/ai/openai"
	"github.com/docsage/backend/pkg/logger"
)

// NewAIClientFromEnv builds the AI client named by AI_ADAPTER: "ollama"
// for a local Ollama server, anything else for OpenAI-compatible APIs.
func NewAIClientFromEnv() ai.Client {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oll.NewRAGOllamaClient(oll.NewRAGOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			TimeoutMin:            int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return oai.NewRAGOpenAIClient(oai.NewRAGOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			TimeoutMin:         int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),
			ParallelEmbeddings: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	}
}
