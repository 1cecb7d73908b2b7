package domain

import "time"

// NoKnowledgeAnswer is shown to users when nothing has been indexed yet.
const NoKnowledgeAnswer = "I don't have enough information to answer this question accurately."

// LowConfidenceAnswer replaces generation when the retrieved chunks match
// the question too weakly.
const LowConfidenceAnswer = "While I have some information, I'm not confident enough to provide an accurate answer to this question."

// ScoredChunk is a retrieved chunk with its similarity to the question.
type ScoredChunk struct {
	Chunk         Chunk   `json:"chunk"`
	DocumentTitle string  `json:"document_title"`
	Score         float64 `json:"score"`
}

// RetrievedContext is the budgeted grounding passed to generation.
type RetrievedContext struct {
	// Text is the assembled context block.
	Text string `json:"text"`

	// Chunks are the chunks that made it into Text, in score order.
	Chunks []ScoredChunk `json:"chunks"`

	// Tokens is the estimated token count of Text.
	Tokens int `json:"tokens"`
}

// DocumentIDs returns the distinct parent documents of the used chunks,
// in first-use order.
func (r *RetrievedContext) DocumentIDs() []string {
	seen := make(map[string]bool, len(r.Chunks))
	ids := make([]string, 0, len(r.Chunks))
	for i := range r.Chunks {
		id := r.Chunks[i].Chunk.DocumentID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// SourceRef cites one chunk used to answer a question.
type SourceRef struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// Answer is a generated answer with provenance.
type Answer struct {
	Question string      `json:"question"`
	Text     string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`

	// Confidence is a weighted mean of the cited similarities, 0-1.
	Confidence float64 `json:"confidence"`

	// LowConfidence is set when Confidence fell below the threshold and
	// the model was not asked.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// Model is the model that produced the answer.
	Model string `json:"model,omitempty"`

	// Duration is the wall-clock time spent answering.
	Duration time.Duration `json:"duration"`
}

// GenerationConfig holds sampling parameters and the wall-clock budget.
type GenerationConfig struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}
