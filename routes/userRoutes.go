package routes

import (
	"civicpulse-be/controllers"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user-facing gamification routes
func UserRoutes(r *gin.Engine) {
	users := r.Group("/api/users")
	{
		users.GET("/leaderboard", controllers.GetLeaderboard)
		users.GET("/:id/achievements", controllers.GetUserAchievements)
	}
}
