package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMaxContext      = "retrieval.max_context_tokens"
	keyConfidence      = "retrieval.confidence_threshold"
	keyTemperature     = "generation.temperature"
	keyTopP            = "generation.top_p"
	keyMaxTokens       = "generation.max_tokens"
	keyGenTimeout      = "generation.timeout"
	keyServerAddr      = "server.addr"
	keyAskPerMinute    = "server.ask_per_minute"
	keyAskBurst        = "server.ask_burst"
	keyCORSOrigins     = "server.cors_origins"
	keyMembersFile     = "members.file"
	keyInboxDir        = "inbox.dir"
	keyInboxCategory   = "inbox.category"
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

type settingKind int

const (
	kindString settingKind = iota
	kindPositiveInt
	kindNonNegativeInt
	kindUnitFloat
	kindDuration
	kindEmbedProvider
	kindLLMProvider
	kindCategory
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider: kindEmbedProvider,
	keyEmbedModel:    kindString,
	keyEmbedBaseURL:  kindString,
	keyEmbedAPIKey:   kindString,
	keyEmbedDims:     kindPositiveInt,
	keyLLMProvider:   kindLLMProvider,
	keyLLMModel:      kindString,
	keyLLMBaseURL:    kindString,
	keyLLMAPIKey:     kindString,
	keyChunkSize:     kindPositiveInt,
	keyChunkOverlap:  kindNonNegativeInt,
	keyTopK:          kindPositiveInt,
	keyMaxContext:    kindPositiveInt,
	keyConfidence:    kindUnitFloat,
	keyTemperature:   kindUnitFloat,
	keyTopP:          kindUnitFloat,
	keyMaxTokens:     kindPositiveInt,
	keyGenTimeout:    kindDuration,
	keyServerAddr:    kindString,
	keyAskPerMinute:  kindNonNegativeInt,
	keyAskBurst:      kindPositiveInt,
	keyCORSOrigins:   kindString,
	keyMembersFile:   kindString,
	keyInboxDir:      kindString,
	keyInboxCategory: kindCategory,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.ProviderProbe
	index       driven.VectorIndex
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, probe driven.ProviderProbe) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		probe:       probe,
	}
}

// WithIndex lets ValidateEmbeddingConfig compare the configured model
// against the vectors already stored.
func (s *SettingsService) WithIndex(index driven.VectorIndex) *SettingsService {
	s.index = index
	return s
}

// Get retrieves current application settings. Missing or invalid stored
// values fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, d.Embedding.Provider, domain.AIProvider.IsValid)
	llmProvider := s.getProvider(keyLLMProvider, d.LLM.Provider, domain.AIProvider.SupportsLLM)

	embedModel := s.configStore.GetString(keyEmbedModel)
	if embedModel == "" {
		embedModel = domain.DefaultEmbeddingModels()[embedProvider]
	}
	embedDims := s.getInt(keyEmbedDims, 0)
	if embedDims == 0 && embedProvider == domain.AIProviderLocal {
		embedDims = d.Embedding.Dimensions
	}

	llmModel := s.configStore.GetString(keyLLMModel)
	llmBaseURL := s.configStore.GetString(keyLLMBaseURL)
	if llmProvider == domain.AIProviderOllama {
		if llmModel == "" {
			llmModel = defaultOllamaModel
		}
		if llmBaseURL == "" {
			llmBaseURL = defaultOllamaURL
		}
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: embedDims,
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    llmModel,
			BaseURL:  llmBaseURL,
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getNonNegativeInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                s.getInt(keyTopK, d.Retrieval.TopK),
			MaxContextTokens:    s.getInt(keyMaxContext, d.Retrieval.MaxContextTokens),
			ConfidenceThreshold: s.getUnitFloat(keyConfidence, d.Retrieval.ConfidenceThreshold),
		},
		Generation: domain.GenerationSettings{
			Temperature: s.getUnitFloat(keyTemperature, d.Generation.Temperature),
			TopP:        s.getUnitFloat(keyTopP, d.Generation.TopP),
			MaxTokens:   s.getInt(keyMaxTokens, d.Generation.MaxTokens),
			Timeout:     s.getDuration(keyGenTimeout, d.Generation.Timeout),
		},
		Server: domain.ServerSettings{
			Addr:         s.getString(keyServerAddr, d.Server.Addr),
			AskPerMinute: s.getNonNegativeInt(keyAskPerMinute, d.Server.AskPerMinute),
			AskBurst:     s.getInt(keyAskBurst, d.Server.AskBurst),
			CORSOrigins:  s.getList(keyCORSOrigins),
		},
		Members: domain.MembersSettings{
			File: s.configStore.GetString(keyMembersFile),
		},
		Inbox: domain.InboxSettings{
			Dir:      s.configStore.GetString(keyInboxDir),
			Category: s.getCategory(keyInboxCategory, d.Inbox.Category),
		},
	}

	return settings, nil
}

// Set validates value for key and persists it with its natural type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var typed any
	switch kind {
	case kindString:
		typed = value
	case kindPositiveInt, kindNonNegativeInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || (kind == kindPositiveInt && n == 0) {
			return fmt.Errorf("%w: %s must be a %s integer", domain.ErrInvalidInput, key, intAdjective(kind))
		}
		typed = n
	case kindUnitFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a duration such as 90s", domain.ErrInvalidInput, key)
		}
		typed = d.String()
	case kindEmbedProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return fmt.Errorf("%w: embedding provider %q, want one of %v",
				domain.ErrInvalidInput, value, domain.AllEmbeddingProviders())
		}
		typed = p.String()
	case kindLLMProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.SupportsLLM() {
			return fmt.Errorf("%w: llm provider %q, want one of %v",
				domain.ErrInvalidInput, value, domain.AllLLMProviders())
		}
		typed = p.String()
	case kindCategory:
		c, err := domain.ParseCategory(value)
		if err != nil {
			return err
		}
		typed = c.String()
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateEmbeddingConfig pings the configured embedding provider and
// checks that its vectors fit the existing index.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	ctx := context.Background()
	dims, err := s.probe.ProbeEmbedding(ctx, &settings.Embedding)
	if err != nil || dims == 0 || s.index == nil {
		return err
	}
	indexed, err := s.index.Dimensions(ctx)
	if err != nil {
		return fmt.Errorf("reading index dimensions: %w", err)
	}
	if indexed != 0 && indexed != dims {
		return fmt.Errorf("%s produces %d dimensions but the index holds %d: %w",
			settings.Embedding.Model, dims, indexed, domain.ErrReindexRequired)
	}
	return nil
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeLLM(context.Background(), &settings.LLM)
}

func intAdjective(kind settingKind) string {
	if kind == kindPositiveInt {
		return "positive"
	}
	return "non-negative"
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

// getList splits a comma-separated value, dropping empty entries.
func (s *SettingsService) getList(key string) []string {
	var out []string
	for _, v := range strings.Split(s.configStore.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *SettingsService) getInt(key string, def int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getNonNegativeInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	if v := s.configStore.GetInt(key); v >= 0 {
		return v
	}
	return def
}

func (s *SettingsService) getUnitFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	v := s.configStore.GetFloat(key)
	if v < 0 || v > 1 {
		return def
	}
	return v
}

// getDuration accepts "90s" style strings or a number of seconds.
func (s *SettingsService) getDuration(key string, def time.Duration) time.Duration {
	if str := s.configStore.GetString(key); str != "" {
		if d, err := time.ParseDuration(str); err == nil && d > 0 {
			return d
		}
		if secs, err := strconv.Atoi(str); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return def
	}
	if secs := s.configStore.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func (s *SettingsService) getProvider(key string, def domain.AIProvider, ok func(domain.AIProvider) bool) domain.AIProvider {
	p := domain.AIProvider(strings.ToLower(s.configStore.GetString(key)))
	if ok(p) {
		return p
	}
	return def
}

func (s *SettingsService) getCategory(key string, def domain.Category) domain.Category {
	if c, err := domain.ParseCategory(s.configStore.GetString(key)); err == nil {
		return c
	}
	return def
}
