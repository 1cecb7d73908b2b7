package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// Ensure SkillMatcher implements the interface.
var _ driving.SkillMatcher = (*SkillMatcher)(nil)

// SkillMatcher ranks registry members by skill overlap.
type SkillMatcher struct {
	registry driven.MemberRegistry
}

// NewSkillMatcher creates a matcher over registry.
func NewSkillMatcher(registry driven.MemberRegistry) *SkillMatcher {
	return &SkillMatcher{registry: registry}
}

// Find scores every member against query.
func (m *SkillMatcher) Find(ctx context.Context, query string, opts domain.FindOptions) ([]domain.SkillMatch, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no skills in query", domain.ErrInvalidInput)
	}
	phrase := strings.Join(terms, " ")

	members, err := m.registry.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	matches := make([]domain.SkillMatch, 0)
	for i := range members {
		member := members[i]
		if opts.AvailableOnly && !member.Available {
			continue
		}

		skills, words := skillSets(member.Skills)

		var matched []string
		for _, t := range terms {
			if skills[t] || words[t] {
				matched = append(matched, t)
			}
		}
		if len(matched) == 0 {
			continue
		}
		matches = append(matches, domain.SkillMatch{
			Member:        member,
			MatchedSkills: matched,
			Score:         len(matched),
			PhraseMatch:   skills[phrase],
		})
	}

	// Overlap first, then an exact phrase match, then member ID.
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PhraseMatch != b.PhraseMatch {
			return a.PhraseMatch
		}
		return a.Member.ID < b.Member.ID
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

// Skills lists every normalised skill in the registry, sorted.
func (m *SkillMatcher) Skills(ctx context.Context) ([]string, error) {
	members, err := m.registry.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range members {
		for _, s := range members[i].Skills {
			s = normalizeSkill(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// skillSets returns the normalised skills and the words they contain.
func skillSets(raw []string) (skills, words map[string]bool) {
	skills = make(map[string]bool, len(raw))
	words = make(map[string]bool, len(raw))
	for _, s := range raw {
		s = normalizeSkill(s)
		if s == "" {
			continue
		}
		skills[s] = true
		for _, w := range strings.Fields(s) {
			words[w] = true
		}
	}
	return skills, words
}

// queryTerms splits on commas and whitespace, lower-cases and dedupes.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(f)
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// normalizeSkill lower-cases s and collapses inner whitespace, so
// "Smart  Contracts" and "smart contracts" compare equal.
func normalizeSkill(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
