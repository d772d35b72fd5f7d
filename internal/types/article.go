package types

import (
	"strings"
)

// UnknownSource is the canonical label for articles whose source field is
// empty or whitespace-only. It participates in totals, unique-source counts,
// and coverage shares like any other label.
const UnknownSource = "unknown"

// Article is a single news article record: the areanews API metadata plus
// the word count derived from the article body (or from the description when
// full-text fetching is disabled). Immutable once constructed; a dataset is
// an ordered slice of Articles.
type Article struct {
	// ID is the API-assigned article identifier, if any.
	ID string `json:"id,omitempty"`

	// Title is the article headline.
	Title string `json:"title"`

	// Source is the publishing outlet label, never empty after normalization.
	Source string `json:"source"`

	// URL is the canonical article URL.
	URL string `json:"url"`

	// PublishedAt is the API ctime value, kept verbatim as text.
	PublishedAt string `json:"ctime,omitempty"`

	// Description is the API-provided summary snippet.
	Description string `json:"description,omitempty"`

	// Lang is the detected dominant language of the article text ("zh", "en"),
	// empty when detection was inconclusive or not attempted.
	Lang string `json:"lang,omitempty"`

	// WordCount is the number of words in the article text. Never negative.
	WordCount int `json:"word_count"`
}

// NormalizeSource maps empty and whitespace-only source labels to
// UnknownSource and trims surrounding whitespace from the rest.
func NormalizeSource(source string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		return UnknownSource
	}
	return s
}
