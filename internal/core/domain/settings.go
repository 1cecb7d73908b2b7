package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible endpoint, such as a local
	// llama.cpp or vLLM server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLocal is the built-in hashing embedder. It needs no server.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLocal:
		return true
	default:
		return false
	}
}

// SupportsLLM returns true if the provider can generate text.
func (p AIProvider) SupportsLLM() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible server"
	case AIProviderLocal:
		return "Built-in hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key, if the endpoint wants one.
	APIKey string

	// Dimensions overrides the vector size for unknown models.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid()
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key, if the endpoint wants one.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.SupportsLLM()
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// RetrievalSettings controls context assembly.
type RetrievalSettings struct {
	// TopK is the number of chunks fetched from the index.
	TopK int

	// MaxContextTokens is the context budget handed to the model.
	MaxContextTokens int

	// ConfidenceThreshold is the confidence below which questions are
	// answered with LowConfidenceAnswer instead of the model. 0 disables.
	ConfidenceThreshold float64
}

// GenerationSettings controls model sampling.
type GenerationSettings struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// Config converts the settings into a GenerationConfig.
func (g GenerationSettings) Config() GenerationConfig {
	return GenerationConfig(g)
}

// ServerSettings controls the HTTP API.
type ServerSettings struct {
	// Addr is the listen address, for example ":8080".
	Addr string

	// AskPerMinute limits /api/ask; zero disables the limit.
	AskPerMinute int

	// AskBurst is the limiter burst size.
	AskBurst int

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string
}

// MembersSettings points at the member registry.
type MembersSettings struct {
	// File is a members.json file. Empty means the sqlite members table.
	File string
}

// InboxSettings controls the inbox watcher.
type InboxSettings struct {
	// Dir is watched for new .txt and .md files. Empty disables the watcher.
	Dir string

	// Category is assigned to documents picked up from the inbox.
	Category Category
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Chunking   ChunkingSettings
	Retrieval  RetrievalSettings
	Generation GenerationSettings
	Server     ServerSettings
	Members    MembersSettings
	Inbox      InboxSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to the offline hashing embedder; the LLM defaults to
// a local Ollama llama3.2.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Dimensions: 512,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
			BaseURL:  "http://localhost:11434",
		},
		Chunking: ChunkingSettings{
			Size:    500,
			Overlap: 50,
		},
		Retrieval: RetrievalSettings{
			TopK:                3,
			MaxContextTokens:    1500,
			ConfidenceThreshold: 0.6,
		},
		Generation: GenerationSettings{
			Temperature: 0.1,
			TopP:        0.1,
			MaxTokens:   512,
			Timeout:     120 * time.Second,
		},
		Server: ServerSettings{
			Addr:         ":8080",
			AskPerMinute: 30,
			AskBurst:     5,
		},
		Inbox: InboxSettings{
			Category: CategoryKnowledge,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hashing-bow",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
