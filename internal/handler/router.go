package handler

import (
	"github.com/gin-gonic/gin"

	"docchat/internal/middleware"
)

type RouterDeps struct {
	Chat        *ChatHandler
	Sessions    *SessionHandler
	Index       *IndexHandler
	AdminSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/rag/chat", deps.Chat.Chat)
	api.POST("/rag/chat/stream", deps.Chat.ChatStream)
	api.GET("/rag/index/status", deps.Index.Status)

	api.POST("/sessions", deps.Sessions.Create)
	api.GET("/sessions", deps.Sessions.List)
	api.GET("/sessions/:id", deps.Sessions.Get)
	api.DELETE("/sessions/:id", deps.Sessions.Delete)

	adminGroup := api.Group("")
	adminGroup.Use(middleware.AdminAuth(deps.AdminSecret))
	adminGroup.POST("/rag/index", deps.Index.Index)
	adminGroup.DELETE("/rag/index", deps.Index.Clear)
	adminGroup.POST("/rag/documents/upload", deps.Index.Upload)
}
