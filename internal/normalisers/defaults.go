package normalisers

import (
	"github.com/custodia-labs/sage-cli/internal/normalisers/docx"
	"github.com/custodia-labs/sage-cli/internal/normalisers/eml"
	"github.com/custodia-labs/sage-cli/internal/normalisers/html"
	"github.com/custodia-labs/sage-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/sage-cli/internal/normalisers/plaintext"
)

// RegisterDefaults registers all built-in normalisers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	r.Register(plaintext.New())
}

// Default returns a registry with the built-in normalisers.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
