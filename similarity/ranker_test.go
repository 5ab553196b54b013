package similarity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssue() NewIssue {
	return NewIssue{
		Title:              "Big pothole on the main road",
		Description:        "Deep pothole near the bus stop",
		Category:           models.Pothole,
		NormalizedLocation: "bailpar dandeli",
	}
}

func matchingCandidate(id string, createdAt time.Time) Candidate {
	return Candidate{
		ID:                 id,
		Title:              "Large pothole on main road",
		Description:        "Dangerous pothole near bus stop",
		Category:           models.Pothole,
		NormalizedLocation: "bailpar dandeli",
		ReportedBy:         "asha",
		CreatedAt:          createdAt,
		ValidationCount:    3,
		Status:             models.Submitted,
	}
}

func TestRankSurfacesSameIssue(t *testing.T) {
	ranker := NewHeuristicRanker()
	twoDaysAgo := time.Now().Add(-48 * time.Hour)

	matches := ranker.Rank(context.Background(), newTestIssue(), []Candidate{
		matchingCandidate("issue-1", twoDaysAgo),
	})

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "issue-1", m.ID)
	assert.GreaterOrEqual(t, m.Similarity, 0.85)
	assert.LessOrEqual(t, m.Similarity, 1.0)
	assert.Contains(t, m.Reasons, "Same location area")
	assert.Contains(t, m.Reasons, "Same issue type")
	assert.Equal(t, "asha", m.ReportedBy)
	assert.Equal(t, 3, m.ValidationCount)
}

func TestRankCategoryMismatchVetoes(t *testing.T) {
	ranker := NewHeuristicRanker()

	// Identical location and text, different category: must not surface.
	cand := matchingCandidate("issue-1", time.Now())
	cand.Title = "Big pothole on the main road"
	cand.Description = "Deep pothole near the bus stop"
	cand.Category = models.Graffiti

	matches := ranker.Rank(context.Background(), newTestIssue(), []Candidate{cand})

	assert.Empty(t, matches)
}

func TestRankNeverReturnsSubThresholdMatches(t *testing.T) {
	ranker := NewHeuristicRanker()

	weak := Candidate{
		ID:                 "issue-2",
		Title:              "Broken streetlight",
		Description:        "Lamp flickering all night",
		Category:           models.Pothole, // same category but nothing else in common
		NormalizedLocation: "station road hubli",
		CreatedAt:          time.Now(),
	}

	matches := ranker.Rank(context.Background(), newTestIssue(), []Candidate{weak})

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, SurfaceThreshold)
	}
}

func TestRankEveryMatchHasReasons(t *testing.T) {
	ranker := NewHeuristicRanker()
	candidates := []Candidate{
		matchingCandidate("a", time.Now().Add(-time.Hour)),
		{
			ID:                 "b",
			Title:              "Pothole",
			Description:        "",
			Category:           models.Pothole,
			NormalizedLocation: "bailpar dandeli",
			CreatedAt:          time.Now(),
		},
	}

	matches := ranker.Rank(context.Background(), newTestIssue(), candidates)

	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.NotEmpty(t, m.Reasons, "match %s", m.ID)
	}
}

func TestRankSortsByScoreThenAge(t *testing.T) {
	ranker := NewHeuristicRanker()
	now := time.Now()

	// Two identical candidates (tie on score) plus a weaker one.
	older := matchingCandidate("older", now.Add(-72*time.Hour))
	newer := matchingCandidate("newer", now.Add(-1*time.Hour))
	weaker := matchingCandidate("weaker", now.Add(-36*time.Hour))
	weaker.Title = "Pothole"
	weaker.Description = ""

	matches := ranker.Rank(context.Background(), newTestIssue(), []Candidate{newer, weaker, older})

	require.Len(t, matches, 3)
	assert.Equal(t, "older", matches[0].ID, "older report wins the tie")
	assert.Equal(t, "newer", matches[1].ID)
	assert.Equal(t, "weaker", matches[2].ID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
}

func TestRankCapsMatchCount(t *testing.T) {
	ranker := NewHeuristicRanker()
	now := time.Now()

	var candidates []Candidate
	for i := 0; i < 15; i++ {
		candidates = append(candidates, matchingCandidate(fmt.Sprintf("issue-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}

	matches := ranker.Rank(context.Background(), newTestIssue(), candidates)

	assert.Len(t, matches, 10)
}

func TestRankEmptyCandidates(t *testing.T) {
	ranker := NewHeuristicRanker()
	assert.Empty(t, ranker.Rank(context.Background(), newTestIssue(), nil))
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"one empty", []string{"a"}, nil, 0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"duplicate tokens ignored", []string{"a", "a", "b"}, []string{"a", "b", "b"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTruncateOldestKeepsEarliestReports(t *testing.T) {
	now := time.Now()
	var candidates []Candidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, Candidate{
			ID:        fmt.Sprintf("c%d", i),
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	kept := truncateOldest(candidates)

	require.Len(t, kept, maxScoredCandidates)
	assert.Equal(t, "c0", kept[0].ID)
	assert.Equal(t, "c24", kept[len(kept)-1].ID)
}
