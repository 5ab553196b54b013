package submission

import (
	"context"
	"log"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upvote records a user's decision to reinforce an existing issue
// instead of filing a new one. The validation count increment is atomic
// at the store layer. Returns the updated validation count.
func (c *Coordinator) Upvote(ctx context.Context, issueID, userID primitive.ObjectID) (int, error) {
	if _, err := c.Store.GetIssue(ctx, issueID); err != nil {
		return 0, err
	}

	validation := models.Validation{
		Issue:   issueID,
		User:    userID,
		IsValid: true,
		Comment: "Upvoted via similar issues dialog",
	}
	if err := c.Store.CreateValidation(ctx, validation); err != nil {
		return 0, err
	}

	count, err := c.Store.IncrementValidationCount(ctx, issueID)
	if err != nil {
		return 0, err
	}

	if err := c.Points.Award(ctx, userID, UpvotePoints); err != nil {
		log.Printf("failed to award upvote points: %v", err)
	}

	c.publish(ctx, Event{Type: "issue_upvoted", Payload: map[string]interface{}{
		"issueId":         issueID.Hex(),
		"validationCount": count,
	}})

	return count, nil
}

// Validate records a standalone community validation (outside the
// similar-issues dialog) with an optional comment.
func (c *Coordinator) Validate(ctx context.Context, issueID, userID primitive.ObjectID, isValid bool, comment string) (int, error) {
	if _, err := c.Store.GetIssue(ctx, issueID); err != nil {
		return 0, err
	}

	validation := models.Validation{
		Issue:   issueID,
		User:    userID,
		IsValid: isValid,
		Comment: comment,
	}
	if err := c.Store.CreateValidation(ctx, validation); err != nil {
		return 0, err
	}

	count, err := c.Store.IncrementValidationCount(ctx, issueID)
	if err != nil {
		return 0, err
	}

	if err := c.Points.Award(ctx, userID, ValidatePoints); err != nil {
		log.Printf("failed to award validation points: %v", err)
	}

	return count, nil
}
