// Package plaintext accepts text-like files as they are. It is the fallback
// for anything without a richer normaliser.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var mimeTypes = []string{
	"text/plain",
	"text/csv",
	"text/yaml",
	"text/toml",
	"application/json",
	"application/xml",
}

var extensions = []string{".txt", ".text", ".log", ".csv", ".json", ".yaml", ".yml", ".toml", ".xml"}

// Normaliser passes text through with only encoding clean-up.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser { return &Normaliser{} }

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string { return mimeTypes }

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string { return extensions }

// Priority is the lowest of the built-ins.
func (n *Normaliser) Priority() int { return 5 }

// Normalise rejects invalid UTF-8 so binary uploads stay out of the index.
// The title comes from the filename.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	text, ok := textutil.Decode(raw.Content)
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}

	return &driven.NormaliseResult{
		Title:   textutil.TitleFromFilename(raw.Filename),
		Content: strings.TrimRight(text, " \t\n"),
		Format:  "text",
	}, nil
}
