package driven

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a file.
// It keeps normalisers in priority order and dispatches on MIME type,
// falling back to the file extension.
type NormaliserRegistry interface {
	// Normalise extracts text using the best matching normaliser.
	// Unknown formats fail with domain.ErrUnsupportedFormat.
	Normalise(ctx context.Context, raw *domain.RawFile) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Supports reports whether a file with this name can be normalised.
	Supports(filename string) bool

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
