package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a discussion entry on an issue
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Issue      primitive.ObjectID `bson:"issue" json:"issue"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Content    string             `bson:"content" json:"content"`
	IsOfficial bool               `bson:"isOfficial" json:"isOfficial"` // from municipal staff
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
