package submission

import (
	"context"
	"errors"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Points awarded for each kind of contribution. Reporting an issue is
// worth more than confirming someone else's.
const (
	ReportPoints   = 10
	UpvotePoints   = 2
	ValidatePoints = 5
)

// ErrNotFound signals that the referenced issue does not exist.
var ErrNotFound = errors.New("issue not found")

// ClientError marks a request rejected before any search or commit work.
type ClientError struct {
	Msg string
}

func (e *ClientError) Error() string {
	return e.Msg
}

func clientErrorf(msg string) error {
	return &ClientError{Msg: msg}
}

// IsClientError reports whether err is the caller's fault.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) || errors.Is(err, ErrNotFound)
}

// NearbyIssue is an issue inside a geographic window, with the reporter
// name resolved for display.
type NearbyIssue struct {
	models.Issue
	ReporterName string
}

// IssueStore is the persistence collaborator.
type IssueStore interface {
	CreateIssue(ctx context.Context, draft models.IssueDraft) (*models.Issue, error)
	GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	GetIssuesNear(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyIssue, error)
	CreateValidation(ctx context.Context, validation models.Validation) error
	IncrementValidationCount(ctx context.Context, issueID primitive.ObjectID) (int, error)
	CountIssuesBy(ctx context.Context, reporterID primitive.ObjectID) (int64, error)
}

// PointsLedger is the gamification collaborator.
type PointsLedger interface {
	Award(ctx context.Context, userID primitive.ObjectID, amount int) error
}

// AchievementService grants badges at most once per user and kind.
type AchievementService interface {
	GrantIfFirst(ctx context.Context, userID primitive.ObjectID, kind string) error
}

// Event is a realtime notification to connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Broadcaster is fire-and-forget; publish failures never fail a commit.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}
