package submission

import (
	"context"
	"log"

	"civicpulse-be/geo"
	"civicpulse-be/models"
	"civicpulse-be/similarity"
)

// DefaultDuplicateRadiusKm is the search window for duplicate detection
// during submission. Map browsing uses a wider radius; this one is
// deliberately tight so only reports of the same spot compete.
const DefaultDuplicateRadiusKm = 0.5

// Coordinator runs the two-phase submit flow: search for nearby
// candidates, rank them for similarity, and either hand the matches
// back for a decision or commit the new issue with its side effects.
// It holds no per-request state; the draft is echoed to the caller and
// resubmitted with SkipDuplicateCheck to proceed past a warning.
type Coordinator struct {
	Store             IssueStore
	Points            PointsLedger
	Achievements      AchievementService
	Broadcast         Broadcaster
	Ranker            similarity.Ranker
	DuplicateRadiusKm float64
}

// NewCoordinator wires a coordinator with the default radius and the
// heuristic ranker.
func NewCoordinator(store IssueStore, points PointsLedger, achievements AchievementService, broadcast Broadcaster) *Coordinator {
	return &Coordinator{
		Store:             store,
		Points:            points,
		Achievements:      achievements,
		Broadcast:         broadcast,
		Ranker:            similarity.NewHeuristicRanker(),
		DuplicateRadiusKm: DefaultDuplicateRadiusKm,
	}
}

// SubmitRequest carries the draft plus the caller's decision flag.
type SubmitRequest struct {
	Draft              models.IssueDraft
	SkipDuplicateCheck bool
}

// SubmitResult is either a committed issue or a list of similar issues
// awaiting the caller's decision, never both.
type SubmitResult struct {
	SimilarIssues []similarity.Match
	Draft         models.IssueDraft
	Issue         *models.Issue
}

// AwaitingDecision reports whether the caller has to decide between
// upvoting an existing issue and submitting anyway.
func (r *SubmitResult) AwaitingDecision() bool {
	return len(r.SimilarIssues) > 0
}

// Submit validates the draft, checks for similar nearby issues and
// commits unless a decision is needed. The search phase is read-only,
// so retrying it cannot double-commit.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	draft := req.Draft

	if draft.Title == "" {
		return nil, clientErrorf("title is required")
	}
	if !models.ValidCategories[draft.Category] {
		return nil, clientErrorf("invalid category")
	}
	if !geo.ValidCoordinates(draft.Latitude, draft.Longitude) {
		return nil, clientErrorf("valid latitude and longitude are required")
	}
	if draft.Priority == "" {
		draft.Priority = models.Medium
	}
	draft.NormalizedLocation = similarity.NormalizeLocation(draft.Address)

	if !req.SkipDuplicateCheck {
		matches := c.findSimilar(ctx, draft)
		if len(matches) > 0 {
			return &SubmitResult{SimilarIssues: matches, Draft: draft}, nil
		}
	}

	return c.commit(ctx, draft)
}

// findSimilar runs the candidate search and ranking. Duplicate
// detection is assistive, not a gate: any failure here degrades to
// "no matches" and the submission proceeds.
func (c *Coordinator) findSimilar(ctx context.Context, draft models.IssueDraft) []similarity.Match {
	radius := c.DuplicateRadiusKm
	if radius <= 0 {
		radius = DefaultDuplicateRadiusKm
	}

	nearby, err := c.Store.GetIssuesNear(ctx, draft.Latitude, draft.Longitude, radius)
	if err != nil {
		log.Printf("duplicate check degraded: nearby lookup failed: %v", err)
		return nil
	}
	if len(nearby) == 0 {
		return nil
	}

	newIssue := similarity.NewIssue{
		Title:              draft.Title,
		Description:        draft.Description,
		Category:           draft.Category,
		NormalizedLocation: draft.NormalizedLocation,
		HasImage:           draft.HasImage(),
	}

	candidates := make([]similarity.Candidate, 0, len(nearby))
	for _, issue := range nearby {
		reporter := issue.ReporterName
		if reporter == "" {
			reporter = "Anonymous"
		}
		candidates = append(candidates, similarity.Candidate{
			ID:                 issue.ID.Hex(),
			Title:              issue.Title,
			Description:        issue.Description,
			Category:           issue.Category,
			NormalizedLocation: similarity.NormalizeLocation(issue.Address),
			HasImage:           issue.ImageURL != nil,
			ReportedBy:         reporter,
			CreatedAt:          issue.CreatedAt,
			ValidationCount:    issue.ValidationCount,
			Status:             issue.Status,
		})
	}

	return c.rank(ctx, newIssue, candidates)
}

// rank shields the coordinator from a misbehaving ranker backend.
func (c *Coordinator) rank(ctx context.Context, newIssue similarity.NewIssue, candidates []similarity.Candidate) (matches []similarity.Match) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("similarity ranking degraded: %v", r)
			matches = nil
		}
	}()
	return c.Ranker.Rank(ctx, newIssue, candidates)
}

// commit persists the draft and fires the side effects. Only the store
// write is fatal; points, achievements and broadcast failures are
// logged and the created issue is still returned.
func (c *Coordinator) commit(ctx context.Context, draft models.IssueDraft) (*SubmitResult, error) {
	issue, err := c.Store.CreateIssue(ctx, draft)
	if err != nil {
		return nil, err
	}

	if err := c.Points.Award(ctx, draft.ReporterID, ReportPoints); err != nil {
		log.Printf("failed to award reporter points: %v", err)
	}

	count, err := c.Store.CountIssuesBy(ctx, draft.ReporterID)
	if err != nil {
		log.Printf("failed to count reporter issues: %v", err)
	} else if count == 1 {
		if err := c.Achievements.GrantIfFirst(ctx, draft.ReporterID, models.FirstReporter); err != nil {
			log.Printf("failed to grant first reporter achievement: %v", err)
		}
	}

	c.publish(ctx, Event{Type: "new_issue", Payload: issue})

	return &SubmitResult{Issue: issue}, nil
}

func (c *Coordinator) publish(ctx context.Context, event Event) {
	if c.Broadcast == nil {
		return
	}
	if err := c.Broadcast.Publish(ctx, event); err != nil {
		log.Printf("broadcast %q failed: %v", event.Type, err)
	}
}
