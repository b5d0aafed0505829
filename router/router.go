package router

import (
	"log"

	"docqa/config"
	"docqa/controllers"
	"docqa/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
// Public auth routes + authenticated document routes.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	// Public (no auth)
	api.POST("/auth/signup", Logger(), controllers.Signup)
	api.POST("/auth/login", Logger(), controllers.Login)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	auth.GET("/auth/me", Logger(), controllers.Me)

	// RAG pipeline
	auth.POST("/upload", Logger(), controllers.Upload)
	auth.GET("/query", Logger(), controllers.Query)

	// Document metadata CRUD
	auth.GET("/documents", Logger(), controllers.GetDocuments)
	auth.GET("/documents/:id", Logger(), controllers.GetDocumentByID)
	auth.PUT("/documents/:id", Logger(), controllers.UpdateDocument)
	auth.DELETE("/documents/:id", Logger(), controllers.DeleteDocument)

	log.Printf("Routes initialized")
}
