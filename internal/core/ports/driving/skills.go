package driving

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// SkillMatcher ranks members against a free-text skill query.
type SkillMatcher interface {
	// Find returns members ranked by skill overlap. No match is an empty
	// result, not an error.
	Find(ctx context.Context, query string, opts domain.FindOptions) ([]domain.SkillMatch, error)

	// Skills lists every normalised skill known to the registry, sorted.
	Skills(ctx context.Context) ([]string, error)
}
