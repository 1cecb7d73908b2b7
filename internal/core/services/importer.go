package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// Ensure FileImporter implements the interface.
var _ driving.FileImporter = (*FileImporter)(nil)

// FileImporter normalises uploaded files and hands the text to the document service.
type FileImporter struct {
	documents driving.DocumentService
	registry  driven.NormaliserRegistry
}

// NewFileImporter creates an importer.
func NewFileImporter(documents driving.DocumentService, registry driven.NormaliserRegistry) *FileImporter {
	return &FileImporter{documents: documents, registry: registry}
}

// Import extracts the text of file and adds it as a document.
func (f *FileImporter) Import(ctx context.Context, file domain.RawFile, meta domain.NewDocument) (*domain.Document, error) {
	result, err := f.registry.Normalise(ctx, &file)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = strings.TrimSpace(result.Title)
	}
	if meta.Title == "" {
		base := filepath.Base(file.Filename)
		meta.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = strings.TrimSpace(result.Description)
	}
	meta.Content = result.Content

	return f.documents.Add(ctx, meta)
}

// Supports reports whether filename has a known format.
func (f *FileImporter) Supports(filename string) bool {
	return f.registry.Supports(filename)
}
