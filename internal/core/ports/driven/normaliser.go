package driven

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions, with the leading dot,
	// used when a file arrives without a MIME type.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the title and text of raw.
	Normalise(ctx context.Context, raw *domain.RawFile) (*NormaliseResult, error)
}

// NormaliseResult is the text recovered from a file.
type NormaliseResult struct {
	// Title is the document's own title, or a name derived from the filename.
	Title string

	// Description is a summary declared by the file itself, if any.
	Description string

	// Content is the extracted plain text.
	Content string

	// Format names the source format, for example "markdown".
	Format string
}
