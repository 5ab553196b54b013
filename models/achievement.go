package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Achievement is a badge unlocked by a user
type Achievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IconName    string             `bson:"iconName,omitempty" json:"iconName,omitempty"`
	UnlockedAt  time.Time          `bson:"unlockedAt" json:"unlockedAt"`
}

// AchievementDef describes a badge that can be unlocked
type AchievementDef struct {
	Type        string
	Title       string
	Description string
	IconName    string
}

const (
	FirstReporter = "first_reporter"
	HotStreak     = "hot_streak"
	QualityGuard  = "quality_guard"
	CityHero      = "city_hero"
)

// AllAchievements is the fixed badge catalog
var AllAchievements = map[string]AchievementDef{
	FirstReporter: {
		Type:        FirstReporter,
		Title:       "First Reporter",
		Description: "Submitted your first civic issue report",
		IconName:    "fas fa-camera-retro",
	},
	HotStreak: {
		Type:        HotStreak,
		Title:       "Hot Streak",
		Description: "Reported issues on 5 days in a row",
		IconName:    "fas fa-fire",
	},
	QualityGuard: {
		Type:        QualityGuard,
		Title:       "Quality Guard",
		Description: "Validated 10 community reports",
		IconName:    "fas fa-shield-alt",
	},
	CityHero: {
		Type:        CityHero,
		Title:       "City Hero",
		Description: "10 of your reports were resolved",
		IconName:    "fas fa-award",
	},
}

// GetAchievementDef looks up a badge definition by type
func GetAchievementDef(achievementType string) (AchievementDef, bool) {
	def, exists := AllAchievements[achievementType]
	return def, exists
}
