package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"civicpulse-be/config"
	"civicpulse-be/models"
	"civicpulse-be/similarity"
	"civicpulse-be/store"
	"civicpulse-be/submission"

	"github.com/gin-gonic/gin"
	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var issueCollection *mongo.Collection = config.GetCollection("issues")
var userCollection *mongo.Collection = config.GetCollection("users")

var issueStore = store.NewMongo()
var submitCoordinator = newSubmitCoordinator()

func newSubmitCoordinator() *submission.Coordinator {
	c := submission.NewCoordinator(issueStore, issueStore, issueStore, store.NewRedisBroadcaster())
	if os.Getenv("RANKER") == "gemini" {
		c.Ranker = similarity.NewGeminiRanker()
	}
	return c
}

// CreateIssue runs the two-phase submission flow. If similar issues are
// found nearby, they are returned with the draft for the user's
// decision; resubmitting with skipDuplicateCheck commits regardless.
func CreateIssue(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	reporterID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Title              string   `json:"title" binding:"required,max=200"`
		Description        string   `json:"description" binding:"max=2000"`
		Category           string   `json:"category" binding:"required"`
		Latitude           *float64 `json:"latitude" binding:"required"`
		Longitude          *float64 `json:"longitude" binding:"required"`
		Address            string   `json:"address" binding:"max=300"`
		ImageRef           *string  `json:"imageRef,omitempty"`
		SkipDuplicateCheck bool     `json:"skipDuplicateCheck"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := submitCoordinator.Submit(ctx, submission.SubmitRequest{
		Draft: models.IssueDraft{
			Title:       input.Title,
			Description: input.Description,
			Category:    models.IssueCategory(input.Category),
			Latitude:    *input.Latitude,
			Longitude:   *input.Longitude,
			Address:     input.Address,
			ImageURL:    input.ImageRef,
			ReporterID:  reporterID,
		},
		SkipDuplicateCheck: input.SkipDuplicateCheck,
	})
	if err != nil {
		if submission.IsClientError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		}
		return
	}

	if result.AwaitingDecision() {
		c.JSON(http.StatusOK, gin.H{
			"type":             "similar_issues_found",
			"message":          "Similar issues found in your area",
			"similarIssues":    result.SimilarIssues,
			"submittedIssue":   result.Draft,
			"canProceedAnyway": true,
		})
		return
	}

	c.JSON(http.StatusCreated, result.Issue)
}

// GetIssue retrieves an issue with reporter, validation and comment details
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, err := issueStore.GetIssue(ctx, issueID)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	reporterMap := map[string]interface{}{"id": issue.ReporterID}
	var reporter models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": issue.ReporterID}).Decode(&reporter); err == nil {
		reporterMap["name"] = reporter.Name
		reporterMap["points"] = reporter.Points
	}

	validations, err := issueStore.GetValidationsForIssue(ctx, issueID)
	if err != nil {
		validations = []models.Validation{}
	}

	comments, err := issueStore.GetCommentsForIssue(ctx, issueID)
	if err != nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              issue.ID,
		"title":           issue.Title,
		"description":     issue.Description,
		"category":        issue.Category,
		"priority":        issue.Priority,
		"status":          issue.Status,
		"latitude":        issue.Latitude,
		"longitude":       issue.Longitude,
		"address":         issue.Address,
		"imageUrl":        issue.ImageURL,
		"reporter":        reporterMap,
		"validationCount": issue.ValidationCount,
		"commentCount":    issue.CommentCount,
		"createdAt":       issue.CreatedAt,
		"updatedAt":       issue.UpdatedAt,
		"resolvedAt":      issue.ResolvedAt,
		"validations":     validations,
		"comments":        comments,
	})
}

// GetAllIssues retrieves issues with filtering and pagination
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	priority := c.Query("priority")
	reporter := c.Query("reporterId")
	sortOrder := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := bson.M{}
	if category != "" && category != "all" {
		filter["category"] = category
	}
	if status != "" && status != "all" {
		filter["status"] = status
	}
	if priority != "" && priority != "all" {
		filter["priority"] = priority
	}
	if reporter != "" {
		if reporterID, err := primitive.ObjectIDFromHex(reporter); err == nil {
			filter["reporterId"] = reporterID
		}
	}

	var sortOptions bson.D
	switch sortOrder {
	case "oldest":
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	case "validations":
		sortOptions = bson.D{{Key: "validationCount", Value: -1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "createdAt", Value: -1}}
	}

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	skip := (page - 1) * limit
	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	type IssueWithReporter struct {
		models.Issue
		Reporter map[string]interface{} `json:"reporter"`
	}

	issuesWithReporter := make([]IssueWithReporter, 0, len(issues))
	for _, issue := range issues {
		reporterMap := map[string]interface{}{"id": issue.ReporterID}
		var reporterDoc models.User
		if err := userCollection.FindOne(ctx, bson.M{"_id": issue.ReporterID}).Decode(&reporterDoc); err == nil {
			reporterMap["name"] = reporterDoc.Name
		}
		issuesWithReporter = append(issuesWithReporter, IssueWithReporter{
			Issue:    issue,
			Reporter: reporterMap,
		})
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      issuesWithReporter,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetNearbyIssues returns issues within a radius of a point. Map
// browsing uses a wider default radius than the duplicate check.
func GetNearbyIssues(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Param("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid latitude"})
		return
	}
	lng, err := strconv.ParseFloat(c.Param("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid longitude"})
		return
	}

	radius := 5.0
	if radiusParam := c.Query("radius"); radiusParam != "" {
		if parsed, err := strconv.ParseFloat(radiusParam, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	nearby, err := issueStore.GetIssuesNear(ctx, lat, lng, radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch nearby issues"})
		return
	}

	type NearbyResponse struct {
		models.Issue
		ReporterName string `json:"reporterName,omitempty"`
	}

	response := make([]NearbyResponse, 0, len(nearby))
	for _, issue := range nearby {
		response = append(response, NearbyResponse{Issue: issue.Issue, ReporterName: issue.ReporterName})
	}

	c.JSON(http.StatusOK, response)
}

// UpvoteIssue reinforces an existing issue instead of creating a new one
func UpvoteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := submitCoordinator.Upvote(ctx, issueID, userObjID)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upvote issue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Issue upvoted successfully",
		"validationCount": count,
	})
}

// ValidateIssue records a standalone community validation with a comment
func ValidateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		IsValid bool   `json:"isValid"`
		Comment string `json:"comment" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := submitCoordinator.Validate(ctx, issueID, userObjID, input.IsValid, input.Comment)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record validation"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Validation recorded",
		"validationCount": count,
	})
}

// CreateComment adds a comment to an issue
func CreateComment(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := issueStore.GetIssue(ctx, issueID); err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	isOfficial := false
	var commenter models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjID}).Decode(&commenter); err == nil {
		isOfficial = commenter.Role == "admin" || commenter.Role == "staff"
	}

	comment, err := issueStore.CreateComment(ctx, models.Comment{
		Issue:      issueID,
		User:       userObjID,
		Content:    input.Content,
		IsOfficial: isOfficial,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetComments lists comments on an issue
func GetComments(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	comments, err := issueStore.GetCommentsForIssue(ctx, issueID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// GetIssueAnalytics returns analytical data about issues
func GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	categoryPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	categoryCursor, err := issueCollection.Aggregate(ctx, categoryPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category analytics"})
		return
	}
	defer categoryCursor.Close(ctx)

	var issuesByCategory []bson.M
	if err := categoryCursor.All(ctx, &issuesByCategory); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode category analytics"})
		return
	}

	// Last 7 days submission counts
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{"$gte": date, "$lt": nextDate},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	// Top validated issues
	findOptions := options.Find().
		SetSort(bson.D{{Key: "validationCount", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(5)

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top issues"})
		return
	}
	defer cursor.Close(ctx)

	var topIssues []models.Issue
	if err := cursor.All(ctx, &topIssues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode top issues"})
		return
	}

	type TopIssue struct {
		ID              primitive.ObjectID `json:"id"`
		Title           string             `json:"title"`
		Category        string             `json:"category"`
		ValidationCount int                `json:"validationCount"`
	}

	topValidated := make([]TopIssue, 0, len(topIssues))
	for _, issue := range topIssues {
		topValidated = append(topValidated, TopIssue{
			ID:              issue.ID,
			Title:           issue.Title,
			Category:        string(issue.Category),
			ValidationCount: issue.ValidationCount,
		})
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{"submitted", "acknowledged", "in_progress"}},
	})
	if err != nil {
		openIssues = 0
	}

	resolvedIssues, err := issueCollection.CountDocuments(ctx, bson.M{"status": "resolved"})
	if err != nil {
		resolvedIssues = 0
	}

	// Resolution time stats over resolved issues
	resolvedCursor, err := issueCollection.Find(ctx,
		bson.M{"resolvedAt": bson.M{"$exists": true, "$ne": nil}},
		options.Find().SetSort(bson.D{{Key: "resolvedAt", Value: -1}}).SetLimit(200))

	avgResolutionDays := 0.0
	medianResolutionDays := 0.0
	if err == nil {
		var resolved []models.Issue
		if err := resolvedCursor.All(ctx, &resolved); err == nil {
			var durations []float64
			for _, issue := range resolved {
				if issue.ResolvedAt != nil {
					durations = append(durations, issue.ResolvedAt.Sub(issue.CreatedAt).Hours()/24)
				}
			}
			if len(durations) > 0 {
				avgResolutionDays, _ = stats.Mean(durations)
				medianResolutionDays, _ = stats.Median(durations)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory":     issuesByCategory,
		"last7Days":            last7Days,
		"topValidatedIssues":   topValidated,
		"totalIssues":          totalIssues,
		"openIssues":           openIssues,
		"resolvedIssues":       resolvedIssues,
		"avgResolutionDays":    avgResolutionDays,
		"medianResolutionDays": medianResolutionDays,
	})
}

// RecentIssues returns the most recent issues for the map feed
func RecentIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	limit := 20

	projection := bson.M{
		"_id":       1,
		"title":     1,
		"latitude":  1,
		"longitude": 1,
		"address":   1,
		"category":  1,
		"status":    1,
		"createdAt": 1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(projection)

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}
	defer cursor.Close(ctx)

	type IssueProjection struct {
		ID        primitive.ObjectID `bson:"_id" json:"id"`
		Title     string             `bson:"title" json:"title"`
		Latitude  float64            `bson:"latitude" json:"latitude"`
		Longitude float64            `bson:"longitude" json:"longitude"`
		Address   string             `bson:"address" json:"address,omitempty"`
		Category  string             `bson:"category" json:"category"`
		Status    string             `bson:"status" json:"status"`
		CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	}

	issues := []IssueProjection{}
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}
