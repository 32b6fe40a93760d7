package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{
		{Title: "The Magic School Bus", Author: "Joanna Cole", Subject: "SCIENCE", DifficultyLevel: "EASY", TargetAgeMin: 6, TargetAgeMax: 9},
		{Title: "A Wrinkle in Time", Author: "Madeleine L'Engle", Subject: "SCIENCE", DifficultyLevel: "MEDIUM", TargetAgeMin: 10, TargetAgeMax: 14},
		{Title: "George's Secret Key", Author: "Lucy Hawking", Subject: "SCIENCE", DifficultyLevel: "MEDIUM", TargetAgeMin: 8, TargetAgeMax: 12, Description: "A space adventure"},
		{Title: "Number the Stars", Author: "Lois Lowry", Subject: "HISTORY", DifficultyLevel: "MEDIUM", TargetAgeMin: 9, TargetAgeMax: 12},
		{Title: "Charlotte's Web", Author: "E.B. White", Subject: "FICTION", DifficultyLevel: "EASY", TargetAgeMin: 7, TargetAgeMax: 10, Description: "A pig and a spider"},
	}
}

func TestCountBySubject(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, 3, c.CountBySubject("SCIENCE"))
	assert.Equal(t, 1, c.CountBySubject("HISTORY"))
	assert.Equal(t, 0, c.CountBySubject("MATH"))
}

func TestCountBySubjectIsCaseSensitive(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, 0, c.CountBySubject("science"))
}

func TestCountBySubjectAllSentinel(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, len(c), c.CountBySubject(SubjectAll))
	assert.Equal(t, len(c), c.CountByDifficulty(SubjectAll))
}

func TestCountByDifficulty(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, 2, c.CountByDifficulty("EASY"))
	assert.Equal(t, 3, c.CountByDifficulty("MEDIUM"))
}

func TestSearchMatchesTitleAuthorDescription(t *testing.T) {
	c := testCatalog()

	assert.Len(t, c.Search("magic"), 1)
	assert.Len(t, c.Search("lowry"), 1)
	assert.Len(t, c.Search("spider"), 1)
	assert.Empty(t, c.Search("dragon"))
}

func TestMatchAgeOverlapsInclusive(t *testing.T) {
	c := testCatalog()

	// 9-9 touches four intervals at their bounds or interiors.
	matches := c.MatchAge(9, 9)
	assert.Len(t, matches, 4)

	assert.Empty(t, c.MatchAge(15, 18))
	assert.Len(t, c.MatchAge(14, 18), 1)
}

func TestRecommendCapsAtLimitInCatalogOrder(t *testing.T) {
	c := testCatalog()

	items := c.Recommend("e", 2)
	require.Len(t, items, 2)
	assert.Equal(t, "The Magic School Bus", items[0].Title)

	assert.Empty(t, c.Recommend("nothing matches this", 6))
}

func TestRecommendMatchesSubject(t *testing.T) {
	c := testCatalog()

	items := c.Recommend("history", 6)
	require.Len(t, items, 1)
	assert.Equal(t, "Number the Stars", items[0].Title)
}

func TestSummaryListsEveryBook(t *testing.T) {
	c := testCatalog()

	summary := c.Summary()
	for _, item := range c {
		assert.Contains(t, summary, item.Title)
	}
}
