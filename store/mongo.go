package store

import (
	"context"
	"time"

	"civicpulse-be/config"
	"civicpulse-be/geo"
	"civicpulse-be/models"
	"civicpulse-be/submission"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements the submission collaborators (IssueStore,
// PointsLedger, AchievementService) over MongoDB collections.
type Mongo struct {
	Issues       *mongo.Collection
	Users        *mongo.Collection
	Validations  *mongo.Collection
	Comments     *mongo.Collection
	Achievements *mongo.Collection
}

// NewMongo wires the store against the configured database.
func NewMongo() *Mongo {
	return &Mongo{
		Issues:       config.GetCollection("issues"),
		Users:        config.GetCollection("users"),
		Validations:  config.GetCollection("validations"),
		Comments:     config.GetCollection("comments"),
		Achievements: config.GetCollection("achievements"),
	}
}

// CreateIssue persists a draft as a new issue record.
func (s *Mongo) CreateIssue(ctx context.Context, draft models.IssueDraft) (*models.Issue, error) {
	now := time.Now()
	issue := models.Issue{
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
		ValidationCount:    0,
		CommentCount:       0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := s.Issues.InsertOne(ctx, issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssue fetches an issue by id.
func (s *Mongo) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.Issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, submission.ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// GetIssuesNear returns issues inside the bounding box around a point,
// with reporter names resolved for display.
func (s *Mongo) GetIssuesNear(ctx context.Context, lat, lng, radiusKm float64) ([]submission.NearbyIssue, error) {
	box := geo.NewBox(lat, lng, radiusKm)

	filter := bson.M{
		"latitude":  bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"longitude": bson.M{"$gte": box.MinLng, "$lte": box.MaxLng},
	}

	cursor, err := s.Issues.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}

	nearby := make([]submission.NearbyIssue, 0, len(issues))
	for _, issue := range issues {
		name := ""
		var reporter models.User
		if err := s.Users.FindOne(ctx, bson.M{"_id": issue.ReporterID}).Decode(&reporter); err == nil {
			name = reporter.Name
		}
		nearby = append(nearby, submission.NearbyIssue{Issue: issue, ReporterName: name})
	}
	return nearby, nil
}

// CreateValidation records a validation entry. The unique (issue, user)
// index rejects a second validation from the same user.
func (s *Mongo) CreateValidation(ctx context.Context, validation models.Validation) error {
	validation.ID = primitive.NewObjectID()
	validation.CreatedAt = time.Now()
	_, err := s.Validations.InsertOne(ctx, validation)
	return err
}

// IncrementValidationCount bumps the counter atomically and returns the
// new value. Concurrent upvotes never lose an increment.
func (s *Mongo) IncrementValidationCount(ctx context.Context, issueID primitive.ObjectID) (int, error) {
	var updated models.Issue
	err := s.Issues.FindOneAndUpdate(
		ctx,
		bson.M{"_id": issueID},
		bson.M{
			"$inc": bson.M{"validationCount": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, submission.ErrNotFound
		}
		return 0, err
	}
	return updated.ValidationCount, nil
}

// CountIssuesBy counts issues reported by a user.
func (s *Mongo) CountIssuesBy(ctx context.Context, reporterID primitive.ObjectID) (int64, error) {
	return s.Issues.CountDocuments(ctx, bson.M{"reporterId": reporterID})
}

// Award adds points to a user's balance atomically.
func (s *Mongo) Award(ctx context.Context, userID primitive.ObjectID, amount int) error {
	_, err := s.Users.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"points": amount}},
	)
	return err
}

// GrantIfFirst unlocks a badge unless the user already holds it.
func (s *Mongo) GrantIfFirst(ctx context.Context, userID primitive.ObjectID, kind string) error {
	count, err := s.Achievements.CountDocuments(ctx, bson.M{"user": userID, "type": kind})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	def, ok := models.GetAchievementDef(kind)
	if !ok {
		def = models.AchievementDef{Type: kind, Title: kind}
	}

	achievement := models.Achievement{
		ID:          primitive.NewObjectID(),
		User:        userID,
		Type:        def.Type,
		Title:       def.Title,
		Description: def.Description,
		IconName:    def.IconName,
		UnlockedAt:  time.Now(),
	}
	_, err = s.Achievements.InsertOne(ctx, achievement)
	return err
}

// CreateComment stores a comment and bumps the issue's comment counter
// atomically.
func (s *Mongo) CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()

	if _, err := s.Comments.InsertOne(ctx, comment); err != nil {
		return nil, err
	}

	_, err := s.Issues.UpdateOne(
		ctx,
		bson.M{"_id": comment.Issue},
		bson.M{"$inc": bson.M{"commentCount": 1}},
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsForIssue lists comments oldest first.
func (s *Mongo) GetCommentsForIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := s.Comments.Find(ctx, bson.M{"issue": issueID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetValidationsForIssue lists validation entries for an issue.
func (s *Mongo) GetValidationsForIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Validation, error) {
	cursor, err := s.Validations.Find(ctx, bson.M{"issue": issueID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	validations := []models.Validation{}
	if err := cursor.All(ctx, &validations); err != nil {
		return nil, err
	}
	return validations, nil
}

// GetLeaderboard returns the top users by points.
func (s *Mongo) GetLeaderboard(ctx context.Context, limit int64) ([]models.User, error) {
	cursor, err := s.Users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "points", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserAchievements lists a user's badges, newest first.
func (s *Mongo) GetUserAchievements(ctx context.Context, userID primitive.ObjectID) ([]models.Achievement, error) {
	cursor, err := s.Achievements.Find(ctx, bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "unlockedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	if err := cursor.All(ctx, &achievements); err != nil {
		return nil, err
	}
	return achievements, nil
}
