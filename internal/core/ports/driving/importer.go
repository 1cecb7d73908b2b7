package driving

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// FileImporter turns uploaded files into documents.
type FileImporter interface {
	// Import extracts the text of file and stores it as a new document.
	// Empty fields of meta are filled from the file: the title from the
	// document itself or its name. Unknown formats fail with
	// domain.ErrUnsupportedFormat.
	Import(ctx context.Context, file domain.RawFile, meta domain.NewDocument) (*domain.Document, error)

	// Supports reports whether a file with this name can be imported.
	Supports(filename string) bool
}
