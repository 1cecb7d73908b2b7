// Package normalisers turns uploaded files into plain text for indexing.
package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches files to the highest-priority normaliser that
// accepts their MIME type or, failing that, their extension.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser. Ties in priority keep registration order.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise extracts text from raw with the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n := r.lookup(raw.MIMEType, raw.Filename)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, describe(raw))
	}
	return n.Normalise(ctx, raw)
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	return r.lookup("", filename) != nil
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// lookup prefers an exact MIME match, then the extension. Generic
// declared types such as application/octet-stream fall through to the
// extension.
func (r *Registry) lookup(mimeType, filename string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mt := mediaType(mimeType); mt != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), mt) {
				return n
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil
	}
	for _, n := range r.normalisers {
		if contains(n.SupportedExtensions(), ext) {
			return n
		}
	}

	// Last resort: the system MIME table for extensions no normaliser lists.
	if mt := mediaType(mime.TypeByExtension(ext)); mt != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), mt) {
				return n
			}
		}
	}
	return nil
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func describe(raw *domain.RawFile) string {
	if raw.MIMEType != "" {
		return fmt.Sprintf("%s (%s)", raw.Filename, raw.MIMEType)
	}
	return raw.Filename
}
