package similarity

import (
	"context"
	"sort"
	"time"

	"civicpulse-be/models"
)

const (
	// SurfaceThreshold is the minimum score a match needs before it is
	// shown to the submitting user.
	SurfaceThreshold = 0.5

	// maxMatches caps the list returned to the caller.
	maxMatches = 10

	// maxScoredCandidates bounds ranking work per submission. Oldest
	// candidates are kept, as the earliest report is likeliest the
	// canonical one.
	maxScoredCandidates = 25

	// categoryMismatchDamping vetoes cross-category matches: even a
	// perfect location+text signal stays well under SurfaceThreshold.
	categoryMismatchDamping = 0.25
)

// NewIssue is the submission being checked for duplicates.
type NewIssue struct {
	Title              string
	Description        string
	Category           models.IssueCategory
	NormalizedLocation string
	HasImage           bool
}

// Candidate is an existing issue inside the geographic search window.
type Candidate struct {
	ID                 string
	Title              string
	Description        string
	Category           models.IssueCategory
	NormalizedLocation string
	HasImage           bool
	ReportedBy         string
	CreatedAt          time.Time
	ValidationCount    int
	Status             models.IssueStatus
}

// Match is a candidate judged to plausibly describe the same physical
// problem, with the display fields a decision UI needs.
type Match struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Similarity      float64            `json:"similarity"`
	Reasons         []string           `json:"reasons"`
	ReportedBy      string             `json:"reportedBy"`
	CreatedAt       time.Time          `json:"createdAt"`
	ValidationCount int                `json:"validationCount"`
	Status          models.IssueStatus `json:"status"`
}

// Ranker decides which candidates describe the same real-world problem
// as a new submission. Implementations must return scores in [0,1],
// surface only matches at or above SurfaceThreshold, sort by score
// descending (older report first on ties) and attach at least one
// reason per match. A failing backend returns an empty list.
type Ranker interface {
	Rank(ctx context.Context, newIssue NewIssue, candidates []Candidate) []Match
}

// Weights control how the heuristic ranker combines its signals.
type Weights struct {
	Category float64
	Location float64
	Text     float64
}

// DefaultWeights favors category agreement, then location, then wording.
func DefaultWeights() Weights {
	return Weights{
		Category: 0.45,
		Location: 0.35,
		Text:     0.20,
	}
}

// HeuristicRanker scores candidates with deterministic lexical signals.
type HeuristicRanker struct {
	Weights Weights
}

// NewHeuristicRanker returns a ranker with the default weights.
func NewHeuristicRanker() *HeuristicRanker {
	return &HeuristicRanker{Weights: DefaultWeights()}
}

// Rank implements Ranker.
func (r *HeuristicRanker) Rank(_ context.Context, newIssue NewIssue, candidates []Candidate) []Match {
	candidates = truncateOldest(candidates)

	newLocTokens := tokenize(newIssue.NormalizedLocation)
	newTextTokens := tokenize(newIssue.Title + " " + newIssue.Description)

	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		locSim := jaccard(newLocTokens, tokenize(cand.NormalizedLocation))
		textSim := jaccard(newTextTokens, tokenize(cand.Title+" "+cand.Description))
		sameCategory := cand.Category == newIssue.Category

		score := r.Weights.Location*locSim + r.Weights.Text*textSim
		if sameCategory {
			score += r.Weights.Category
		} else {
			score *= categoryMismatchDamping
		}
		score = clamp01(score)

		if score < SurfaceThreshold {
			continue
		}

		var reasons []string
		if sameCategory {
			reasons = append(reasons, "Same issue type")
		}
		if locSim >= 0.6 {
			reasons = append(reasons, "Same location area")
		}
		if textSim >= 0.4 {
			reasons = append(reasons, "Similar description")
		}

		matches = append(matches, Match{
			ID:              cand.ID,
			Title:           cand.Title,
			Description:     cand.Description,
			Similarity:      score,
			Reasons:         reasons,
			ReportedBy:      cand.ReportedBy,
			CreatedAt:       cand.CreatedAt,
			ValidationCount: cand.ValidationCount,
			Status:          cand.Status,
		})
	}

	sortMatches(matches)
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// sortMatches orders by similarity descending; on equal scores the
// older report wins, keeping the ordering deterministic.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
}

func truncateOldest(candidates []Candidate) []Candidate {
	if len(candidates) <= maxScoredCandidates {
		return candidates
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted[:maxScoredCandidates]
}

// jaccard is the token-set overlap ratio in [0,1].
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tok := range a {
		set[tok] = true
	}
	union := len(set)
	shared := 0
	seen := make(map[string]bool, len(b))
	for _, tok := range b {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if set[tok] {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
