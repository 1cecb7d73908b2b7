package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Category classifies what a document is for.
type Category string

// Available document categories.
const (
	// CategoryKnowledge is general community knowledge (FAQs, about pages).
	CategoryKnowledge Category = "knowledge"

	// CategoryTraining is onboarding and training material.
	CategoryTraining Category = "training"

	// CategoryReference is reference material such as specs and guides.
	CategoryReference Category = "reference"
)

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryKnowledge, CategoryTraining, CategoryReference:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a boundary value into a Category.
// Matching is case-insensitive; unknown values are rejected.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// AllCategories returns every document category.
func AllCategories() []Category {
	return []Category{CategoryKnowledge, CategoryTraining, CategoryReference}
}

// DocumentStatus is the indexing lifecycle state of a document.
type DocumentStatus string

// Document lifecycle states.
const (
	// StatusUploaded is set on creation; the document has no vectors.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusIndexing is set while an ingestion job processes the document.
	StatusIndexing DocumentStatus = "indexing"

	// StatusIndexed means every chunk of the document has a visible vector.
	StatusIndexed DocumentStatus = "indexed"

	// StatusFailed means the last ingestion attempt failed; see FailureReason.
	StatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusIndexing, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// ParseDocumentStatus converts a boundary value into a DocumentStatus.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	st := DocumentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown document status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// Document is an uploaded piece of community knowledge.
type Document struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`

	// Title is the human-readable title, used when citing the document.
	Title string `json:"title"`

	// Description is an optional summary supplied at upload.
	Description string `json:"description,omitempty"`

	// Category classifies the document.
	Category Category `json:"category"`

	// Content is the raw document text.
	Content string `json:"content,omitempty"`

	// Status is the indexing lifecycle state.
	Status DocumentStatus `json:"status"`

	// FailureReason explains a failed status.
	FailureReason string `json:"failure_reason,omitempty"`

	// ChunkCount is the number of chunks produced by the last successful indexing.
	ChunkCount int `json:"chunk_count"`

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document last changed status.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument holds the fields accepted on upload.
type NewDocument struct {
	Title       string
	Description string
	Category    Category
	Content     string
}

// Validate checks the upload fields.
func (n NewDocument) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !n.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, n.Category)
	}
	return nil
}

// DocumentFilter narrows a document listing. Zero values match everything.
type DocumentFilter struct {
	Category Category
	Status   DocumentStatus
}

// Matches reports whether doc satisfies the filter.
func (f DocumentFilter) Matches(doc *Document) bool {
	if f.Category != "" && doc.Category != f.Category {
		return false
	}
	if f.Status != "" && doc.Status != f.Status {
		return false
	}
	return true
}

// Chunk is a bounded span of a document's text used as the unit of retrieval.
//
// Chunks of one document are contiguous. Chunk i starts Overlap bytes before
// chunk i-1 ends, so joining Content[Overlap:] of every chunk reconstructs
// the source text.
type Chunk struct {
	// ID is deterministic: "<document id>#<ordinal>".
	ID string `json:"id"`

	// DocumentID is the parent document.
	DocumentID string `json:"document_id"`

	// Ordinal is the position of the chunk within the document, from 0.
	Ordinal int `json:"ordinal"`

	// Content is the chunk text, text[Start:End] of the parent document.
	Content string `json:"content"`

	// Start is the byte offset of the chunk in the source text.
	Start int `json:"start"`

	// End is the exclusive byte offset of the chunk in the source text.
	End int `json:"end"`

	// Overlap is the number of leading bytes shared with the previous chunk.
	Overlap int `json:"overlap"`
}

// ChunkID builds the identifier of the chunk at ordinal within a document.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", documentID, ordinal)
}

// Len returns the length of the chunk in characters.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Content)
}

// Reconstruct joins chunks back into the source text by dropping each
// chunk's declared overlap.
func Reconstruct(chunks []Chunk) string {
	var b strings.Builder
	for i := range chunks {
		c := chunks[i]
		if c.Overlap > len(c.Content) {
			continue
		}
		b.WriteString(c.Content[c.Overlap:])
	}
	return b.String()
}
