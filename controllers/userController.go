package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetLeaderboard returns the top users by points
func GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := issueStore.GetLeaderboard(ctx, int64(limit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	type LeaderboardEntry struct {
		ID     primitive.ObjectID `json:"id"`
		Name   string             `json:"name"`
		Points int                `json:"points"`
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, LeaderboardEntry{
			ID:     user.ID,
			Name:   user.Name,
			Points: user.Points,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// GetUserAchievements lists the badges a user has unlocked
func GetUserAchievements(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	achievements, err := issueStore.GetUserAchievements(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch achievements"})
		return
	}

	c.JSON(http.StatusOK, achievements)
}
