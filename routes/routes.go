package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/controllers"
	"github.com/fifthdraft/fifthdraft-backend/middleware"
	"github.com/fifthdraft/fifthdraft-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	recordingCtrl := controllers.NewRecordingController(cfg)
	transcribeCtrl := controllers.NewTranscribeController(cfg)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.GET("/me", middleware.AuthMiddleware(), controllers.Me)
	}

	user := api.Group("")
	{
		user.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))

		// The transcription pipeline
		user.POST("/transcribe", transcribeCtrl.Transcribe)

		// Recordings
		user.POST("/recordings", recordingCtrl.Upload)
		user.GET("/recordings", recordingCtrl.List)
		user.GET("/recordings/:id", recordingCtrl.Get)
		user.DELETE("/recordings/:id", recordingCtrl.Delete)

		// Notes
		user.GET("/notes", controllers.GetNotes)
		user.GET("/notes/:id", controllers.GetNoteDetail)
		user.PATCH("/notes/:id", controllers.UpdateNote)
		user.DELETE("/notes/:id", controllers.DeleteNote)
		user.GET("/notes/:id/export", controllers.ExportNote)
		user.GET("/notes/:id/action-items", controllers.GetNoteActionItems)

		// Action items
		user.PATCH("/action-items/:id", controllers.UpdateActionItem)
		user.DELETE("/action-items/:id", controllers.DeleteActionItem)

		// Folders & tags
		user.POST("/folders", controllers.CreateFolder)
		user.GET("/folders", controllers.GetFolders)
		user.PUT("/folders/:id", controllers.UpdateFolder)
		user.DELETE("/folders/:id", controllers.DeleteFolder)
		user.POST("/tags", controllers.CreateTag)
		user.GET("/tags", controllers.GetTags)
		user.DELETE("/tags/:id", controllers.DeleteTag)

		// Profile & usage
		user.GET("/profile", controllers.GetProfile)
		user.PATCH("/profile/settings", controllers.UpdateProfileSettings)
		user.GET("/usage", controllers.GetUsage)
	}

	r.GET("/ws/recording/:id", ws.HandleRecordingWebSocket)
	r.GET("/ws/status", ws.HandleGlobalWebSocket)

	return r
}
