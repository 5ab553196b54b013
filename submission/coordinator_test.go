package submission

import (
	"context"
	"testing"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/similarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	coord        *Coordinator
	store        *fakeStore
	ledger       *fakeLedger
	achievements *fakeAchievements
	broadcast    *fakeBroadcaster
}

func newHarness() *harness {
	store := &fakeStore{}
	ledger := newFakeLedger()
	achievements := &fakeAchievements{}
	broadcast := &fakeBroadcaster{}
	return &harness{
		coord:        NewCoordinator(store, ledger, achievements, broadcast),
		store:        store,
		ledger:       ledger,
		achievements: achievements,
		broadcast:    broadcast,
	}
}

func potholeDraft(reporter primitive.ObjectID) models.IssueDraft {
	return models.IssueDraft{
		Title:       "Big pothole on the main road",
		Description: "Deep pothole near the bus stop",
		Category:    models.Pothole,
		Latitude:    12.900,
		Longitude:   74.800,
		Address:     "Bailpar District Dandeli",
		ReporterID:  reporter,
	}
}

func existingPothole(reporter primitive.ObjectID) models.Issue {
	return models.Issue{
		Title:       "Large pothole on main road",
		Description: "Dangerous pothole near bus stop",
		Category:    models.Pothole,
		Status:      models.Submitted,
		Latitude:    12.901,
		Longitude:   74.801,
		Address:     "bailpar dandeli",
		ReporterID:  reporter,
		CreatedAt:   time.Now().Add(-48 * time.Hour),
	}
}

func TestSubmitRejectsInvalidDrafts(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()

	tests := []struct {
		name   string
		mutate func(*models.IssueDraft)
	}{
		{"missing title", func(d *models.IssueDraft) { d.Title = "" }},
		{"bad category", func(d *models.IssueDraft) { d.Category = "sinkhole" }},
		{"latitude out of range", func(d *models.IssueDraft) { d.Latitude = 95 }},
		{"longitude out of range", func(d *models.IssueDraft) { d.Longitude = -200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := potholeDraft(reporter)
			tt.mutate(&draft)

			_, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: draft})

			require.Error(t, err)
			assert.True(t, IsClientError(err))
		})
	}

	// Rejection happens before any search or commit work.
	assert.Empty(t, h.store.issues)
	assert.Empty(t, h.broadcast.types())
}

// Scenario: matching report 100m away, two days older. The submitter
// gets the match back and nothing is committed.
func TestSubmitReturnsSimilarIssuesForDecision(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()
	existingID := h.store.seed(existingPothole(primitive.NewObjectID()))

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.True(t, result.AwaitingDecision())
	assert.Nil(t, result.Issue)

	require.Len(t, result.SimilarIssues, 1)
	match := result.SimilarIssues[0]
	assert.Equal(t, existingID.Hex(), match.ID)
	assert.GreaterOrEqual(t, match.Similarity, 0.85)
	assert.Contains(t, match.Reasons, "Same location area")
	assert.Contains(t, match.Reasons, "Same issue type")

	// Draft is echoed back so the client can resubmit it verbatim.
	assert.Equal(t, "Big pothole on the main road", result.Draft.Title)
	assert.Equal(t, "bailpar dandeli", result.Draft.NormalizedLocation)

	// The search phase is read-only: no issue, no points, no events.
	assert.Len(t, h.store.issues, 1)
	assert.Zero(t, h.ledger.total(reporter))
	assert.Empty(t, h.broadcast.types())
}

// Scenario: same spot but garbage vs pothole. The category veto drops
// the candidate and the submission commits directly.
func TestSubmitCategoryMismatchCommits(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()
	h.store.seed(existingPothole(primitive.NewObjectID()))

	draft := potholeDraft(reporter)
	draft.Title = "Garbage pile on the main road"
	draft.Category = models.Garbage

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: draft})

	require.NoError(t, err)
	assert.False(t, result.AwaitingDecision())
	require.NotNil(t, result.Issue)
	assert.Equal(t, models.Garbage, result.Issue.Category)
}

// Scenario: no candidates within 0.5km at all.
func TestSubmitNoCandidatesCommits(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()
	far := existingPothole(primitive.NewObjectID())
	far.Latitude = 13.5
	far.Longitude = 75.5
	h.store.seed(far)

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.NotNil(t, result.Issue)
	assert.Equal(t, models.Submitted, result.Issue.Status)
	assert.Equal(t, 0, result.Issue.ValidationCount)
	assert.Equal(t, 0, result.Issue.CommentCount)
	assert.Equal(t, "bailpar dandeli", result.Issue.NormalizedLocation)
}

func TestSubmitCommitSideEffects(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.NotNil(t, result.Issue)
	assert.Equal(t, ReportPoints, h.ledger.total(reporter))
	assert.Equal(t, []string{models.FirstReporter}, h.achievements.granted)
	assert.Equal(t, []string{"new_issue"}, h.broadcast.types())
}

func TestSubmitFirstReporterOnlyOnFirstIssue(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()

	first := potholeDraft(reporter)
	_, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: first})
	require.NoError(t, err)

	second := potholeDraft(reporter)
	second.Title = "Streetlight out near the market"
	second.Category = models.Lighting
	second.Latitude = 12.95
	_, err = h.coord.Submit(context.Background(), SubmitRequest{Draft: second})
	require.NoError(t, err)

	assert.Equal(t, []string{models.FirstReporter}, h.achievements.granted)
	assert.Equal(t, 2*ReportPoints, h.ledger.total(reporter))
}

func TestSubmitSkipDuplicateCheckBypassesSearch(t *testing.T) {
	h := newHarness()
	reporter := primitive.NewObjectID()
	h.store.seed(existingPothole(primitive.NewObjectID()))

	result, err := h.coord.Submit(context.Background(), SubmitRequest{
		Draft:              potholeDraft(reporter),
		SkipDuplicateCheck: true,
	})

	require.NoError(t, err)
	assert.False(t, result.AwaitingDecision())
	require.NotNil(t, result.Issue)
}

func TestSubmitNearbyLookupFailureDegrades(t *testing.T) {
	h := newHarness()
	h.store.failNearby = errBoom
	reporter := primitive.NewObjectID()

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.NotNil(t, result.Issue)
}

type panickyRanker struct{}

func (panickyRanker) Rank(context.Context, similarity.NewIssue, []similarity.Candidate) []similarity.Match {
	panic("ranker exploded")
}

func TestSubmitRankerPanicDegrades(t *testing.T) {
	h := newHarness()
	h.coord.Ranker = panickyRanker{}
	reporter := primitive.NewObjectID()
	h.store.seed(existingPothole(primitive.NewObjectID()))

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.NotNil(t, result.Issue, "degraded ranking must not block submission")
}

func TestSubmitPersistenceFailureIsFatalAndSideEffectFree(t *testing.T) {
	h := newHarness()
	h.store.failCreate = errBoom
	reporter := primitive.NewObjectID()

	_, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.Error(t, err)
	assert.False(t, IsClientError(err))
	assert.Zero(t, h.ledger.total(reporter))
	assert.Empty(t, h.achievements.granted)
	assert.Empty(t, h.broadcast.types())
}

func TestSubmitBroadcastFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.broadcast.err = errBoom
	reporter := primitive.NewObjectID()

	result, err := h.coord.Submit(context.Background(), SubmitRequest{Draft: potholeDraft(reporter)})

	require.NoError(t, err)
	require.NotNil(t, result.Issue)
}
