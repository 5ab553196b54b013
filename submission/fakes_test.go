package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"civicpulse-be/geo"
	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory IssueStore for coordinator tests.
type fakeStore struct {
	mu          sync.Mutex
	issues      []*models.Issue
	validations []models.Validation
	failCreate  error
	failNearby  error
}

func (s *fakeStore) seed(issue models.Issue) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	cp := issue
	s.issues = append(s.issues, &cp)
	return cp.ID
}

func (s *fakeStore) CreateIssue(_ context.Context, draft models.IssueDraft) (*models.Issue, error) {
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	issue := &models.Issue{
		ID:                 primitive.NewObjectID(),
		Title:              draft.Title,
		Description:        draft.Description,
		Category:           draft.Category,
		Priority:           draft.Priority,
		Status:             models.Submitted,
		Latitude:           draft.Latitude,
		Longitude:          draft.Longitude,
		Address:            draft.Address,
		NormalizedLocation: draft.NormalizedLocation,
		ImageURL:           draft.ImageURL,
		ReporterID:         draft.ReporterID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.issues = append(s.issues, issue)
	return issue, nil
}

func (s *fakeStore) GetIssue(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		if issue.ID == id {
			cp := *issue
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) GetIssuesNear(_ context.Context, lat, lng, radiusKm float64) ([]NearbyIssue, error) {
	if s.failNearby != nil {
		return nil, s.failNearby
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	box := geo.NewBox(lat, lng, radiusKm)
	var out []NearbyIssue
	for _, issue := range s.issues {
		if box.Contains(issue.Latitude, issue.Longitude) {
			out = append(out, NearbyIssue{Issue: *issue, ReporterName: "citizen"})
		}
	}
	return out, nil
}

func (s *fakeStore) CreateValidation(_ context.Context, validation models.Validation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, validation)
	return nil
}

func (s *fakeStore) IncrementValidationCount(_ context.Context, issueID primitive.ObjectID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		if issue.ID == issueID {
			issue.ValidationCount++
			return issue.ValidationCount, nil
		}
	}
	return 0, ErrNotFound
}

func (s *fakeStore) CountIssuesBy(_ context.Context, reporterID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, issue := range s.issues {
		if issue.ReporterID == reporterID {
			n++
		}
	}
	return n, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	awards  map[primitive.ObjectID]int
	failErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{awards: make(map[primitive.ObjectID]int)}
}

func (l *fakeLedger) Award(_ context.Context, userID primitive.ObjectID, amount int) error {
	if l.failErr != nil {
		return l.failErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.awards[userID] += amount
	return nil
}

func (l *fakeLedger) total(userID primitive.ObjectID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.awards[userID]
}

type fakeAchievements struct {
	mu      sync.Mutex
	granted []string
}

func (a *fakeAchievements) GrantIfFirst(_ context.Context, _ primitive.ObjectID, kind string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.granted = append(a.granted, kind)
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (b *fakeBroadcaster) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return b.err
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")
