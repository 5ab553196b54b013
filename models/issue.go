package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole  IssueCategory = "pothole"
	Lighting IssueCategory = "lighting"
	Garbage  IssueCategory = "garbage"
	Signage  IssueCategory = "signage"
	Graffiti IssueCategory = "graffiti"
	Flooding IssueCategory = "flooding"
	Other    IssueCategory = "other"
)

// ValidCategories lists every accepted issue category
var ValidCategories = map[IssueCategory]bool{
	Pothole: true, Lighting: true, Garbage: true,
	Signage: true, Graffiti: true, Flooding: true, Other: true,
}

// IssueStatus enum
type IssueStatus string

const (
	Submitted    IssueStatus = "submitted"
	Acknowledged IssueStatus = "acknowledged"
	InProgress   IssueStatus = "in_progress"
	Resolved     IssueStatus = "resolved"
	Closed       IssueStatus = "closed"
)

// IssuePriority enum
type IssuePriority string

const (
	Low    IssuePriority = "low"
	Medium IssuePriority = "medium"
	High   IssuePriority = "high"
	Urgent IssuePriority = "urgent"
)

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Category           IssueCategory      `bson:"category" json:"category"`
	Priority           IssuePriority      `bson:"priority" json:"priority"`
	Status             IssueStatus        `bson:"status" json:"status"`
	Latitude           float64            `bson:"latitude" json:"latitude"`
	Longitude          float64            `bson:"longitude" json:"longitude"`
	Address            string             `bson:"address,omitempty" json:"address,omitempty"`
	NormalizedLocation string             `bson:"normalizedLocation,omitempty" json:"-"`
	ImageURL           *string            `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ReporterID         primitive.ObjectID `bson:"reporterId" json:"reporterId"`
	ValidationCount    int                `bson:"validationCount" json:"validationCount"`
	CommentCount       int                `bson:"commentCount" json:"commentCount"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
	ResolvedAt         *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// IssueDraft is a fully-formed submission that has not been committed yet.
// It is echoed back to the caller when similar issues are found, so the
// decision round-trip stays stateless on the server.
type IssueDraft struct {
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Category           IssueCategory      `json:"category"`
	Priority           IssuePriority      `json:"priority,omitempty"`
	Latitude           float64            `json:"latitude"`
	Longitude          float64            `json:"longitude"`
	Address            string             `json:"address,omitempty"`
	NormalizedLocation string             `json:"-"`
	ImageURL           *string            `json:"imageRef,omitempty"`
	ReporterID         primitive.ObjectID `json:"-"`
}

// HasImage reports whether the draft carries a photo reference.
func (d IssueDraft) HasImage() bool {
	return d.ImageURL != nil && *d.ImageURL != ""
}
