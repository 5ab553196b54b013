package main

import (
	"log"
	"net/http"
	"os"

	"civicpulse-be/config"
	"civicpulse-be/models"
	"civicpulse-be/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	if err := models.EnsureValidationIndex(config.GetCollection("validations")); err != nil {
		log.Printf("Failed to ensure validation index: %v", err)
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{os.Getenv("FRONTEND_ORIGIN")}
	corsConfig.AllowCredentials = true
	if corsConfig.AllowOrigins[0] == "" {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(corsConfig))

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.UserRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
