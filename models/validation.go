package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Validation records a community confirmation that an issue is real.
// Upvotes from the similar-issues dialog land here with IsValid=true.
type Validation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Issue     primitive.ObjectID `bson:"issue" json:"issue"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	IsValid   bool               `bson:"isValid" json:"isValid"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// EnsureValidationIndex creates a unique compound index for (issue, user)
func EnsureValidationIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "issue", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
