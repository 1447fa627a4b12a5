// Package server exposes the mentor over HTTP with gin.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek/aimentor/internal/logger"
)

type RouterConfig struct {
	Prefix       string
	AllowOrigins []string

	ChatHandler  *ChatHandler
	EduHandler   *EduHandler
	AdminHandler *AdminHandler

	Logger *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	if len(cfg.AllowOrigins) > 0 {
		r.Use(CORS(cfg.AllowOrigins))
	}

	api := r.Group(cfg.Prefix)
	api.GET("/healthcheck", HealthCheck)

	if cfg.ChatHandler != nil {
		api.POST("/chat/message/send", cfg.ChatHandler.SendMessage)
	}

	if cfg.EduHandler != nil {
		api.GET("/edu/student/:student_id", cfg.EduHandler.GetStudent)
		api.POST("/edu/student", cfg.EduHandler.CreateStudent)
		api.GET("/edu/topic/download/:edu_content_type/:topic_id", cfg.EduHandler.DownloadTopicContent)
		api.GET("/edu/block/download/:block_id", cfg.EduHandler.DownloadBlockContent)
	}

	// Admin (schema management)
	if cfg.AdminHandler != nil {
		api.GET("/table/create", cfg.AdminHandler.CreateTables)
		api.GET("/table/drop", cfg.AdminHandler.DropTables)
	}

	return r
}
