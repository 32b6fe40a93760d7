package catalog

import (
	"fmt"
	"strings"
)

// SubjectAll matches every item regardless of subject or difficulty.
const SubjectAll = "ALL"

// Item is one book in the catalog. Reference data only: the session core
// never mutates items, it only queries them.
type Item struct {
	Title           string `json:"title" yaml:"title"`
	Author          string `json:"author" yaml:"author"`
	Subject         string `json:"subject" yaml:"subject"`
	DifficultyLevel string `json:"difficulty_level" yaml:"difficulty_level"`
	TargetAgeMin    int    `json:"target_age_min" yaml:"target_age_min"`
	TargetAgeMax    int    `json:"target_age_max" yaml:"target_age_max"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AgeRange is an inclusive reader age interval.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FilterCriteria is a partial filter update forwarded to the UI. Zero
// fields mean "leave that part of the filter alone"; the UI owns merging.
type FilterCriteria struct {
	SearchTerm         string    `json:"search_term,omitempty"`
	SelectedSubject    string    `json:"selected_subject,omitempty"`
	SelectedDifficulty string    `json:"selected_difficulty,omitempty"`
	AgeRange           *AgeRange `json:"age_range,omitempty"`
}

// Catalog is the read-only set of books the agent may filter or recommend.
type Catalog []Item

// CountBySubject returns how many items carry the given subject tag.
// Matching is exact and case-sensitive, except the ALL sentinel which
// matches everything.
func (c Catalog) CountBySubject(subject string) int {
	if subject == SubjectAll {
		return len(c)
	}
	n := 0
	for _, item := range c {
		if item.Subject == subject {
			n++
		}
	}
	return n
}

// CountByDifficulty returns how many items carry the given difficulty
// level, with the same matching rules as CountBySubject.
func (c Catalog) CountByDifficulty(level string) int {
	if level == SubjectAll {
		return len(c)
	}
	n := 0
	for _, item := range c {
		if item.DifficultyLevel == level {
			n++
		}
	}
	return n
}

// Search returns the items whose title, author or description contains
// the term, case-insensitively.
func (c Catalog) Search(term string) []Item {
	term = strings.ToLower(term)
	var out []Item
	for _, item := range c {
		if strings.Contains(strings.ToLower(item.Title), term) ||
			strings.Contains(strings.ToLower(item.Author), term) ||
			strings.Contains(strings.ToLower(item.Description), term) {
			out = append(out, item)
		}
	}
	return out
}

// MatchAge returns the items whose [TargetAgeMin, TargetAgeMax] interval
// overlaps the requested interval, bounds inclusive.
func (c Catalog) MatchAge(minAge, maxAge int) []Item {
	var out []Item
	for _, item := range c {
		if item.TargetAgeMin <= maxAge && item.TargetAgeMax >= minAge {
			out = append(out, item)
		}
	}
	return out
}

// Recommend matches a free-text preference string against title,
// description, subject and author, case-insensitively, and returns at
// most limit items in catalog order.
func (c Catalog) Recommend(preferences string, limit int) []Item {
	preferences = strings.ToLower(preferences)
	out := []Item{}
	for _, item := range c {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(item.Title), preferences) ||
			strings.Contains(strings.ToLower(item.Description), preferences) ||
			strings.Contains(strings.ToLower(item.Subject), preferences) ||
			strings.Contains(strings.ToLower(item.Author), preferences) {
			out = append(out, item)
		}
	}
	return out
}

// Summary renders the catalog as one line per book, suitable for seeding
// the remote agent's conversational context.
func (c Catalog) Summary() string {
	var b strings.Builder
	for _, item := range c {
		fmt.Fprintf(&b, "- %q by %s (%s, %s, ages %d-%d)\n",
			item.Title, item.Author, item.Subject, item.DifficultyLevel,
			item.TargetAgeMin, item.TargetAgeMax)
	}
	return b.String()
}
