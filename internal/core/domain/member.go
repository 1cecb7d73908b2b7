package domain

// Member is a community member as published by the member registry.
// The core never mutates members.
type Member struct {
	// ID is the registry identifier; it breaks ranking ties.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Skills are free-text skill tags, for example "rust" or "smart contracts".
	Skills []string `json:"skills"`

	// Projects are projects the member contributed to.
	Projects []string `json:"projects,omitempty"`

	// Available is false when the member asked not to be matched.
	Available bool `json:"availability"`

	// TwitterHandle is the optional twitter handle.
	TwitterHandle string `json:"twitter_handle,omitempty"`

	// TelegramHandle is the optional telegram handle or id.
	TelegramHandle string `json:"telegram_id,omitempty"`
}

// SkillMatch is one ranked result of a skill search.
type SkillMatch struct {
	Member Member `json:"member"`

	// MatchedSkills are the normalised query terms found in the member profile.
	MatchedSkills []string `json:"matched_skills"`

	// Score is the number of query terms found in the profile.
	Score int `json:"score"`

	// PhraseMatch is set when the whole query equals one of the member's skills.
	PhraseMatch bool `json:"phrase_match"`
}

// FindOptions tunes a skill search.
type FindOptions struct {
	// AvailableOnly drops members that are not available.
	AvailableOnly bool

	// Limit caps the number of results; zero means no limit.
	Limit int
}
