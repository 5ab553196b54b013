package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issues")
	{
		issue.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(10), controllers.CreateIssue)
		issue.GET("", controllers.GetAllIssues)
		issue.GET("/recent", controllers.RecentIssues)
		issue.GET("/near/:lat/:lng", controllers.GetNearbyIssues)
		issue.GET("/:id", controllers.GetIssue)
		issue.POST("/:id/upvote", middlewares.AuthMiddleware(), controllers.UpvoteIssue)
		issue.POST("/:id/validate", middlewares.AuthMiddleware(), controllers.ValidateIssue)
		issue.POST("/:id/comments", middlewares.AuthMiddleware(), controllers.CreateComment)
		issue.GET("/:id/comments", controllers.GetComments)
	}

	r.GET("/api/analytics/issues", controllers.GetIssueAnalytics)
}
