package router

import (
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/adapter/api/handler"
	"aeroclassifieds/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up all conversation routes (excluding WebSocket)
func SetupConversationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	conversationHandler := handler.GetConversationHandler()

	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", conversationHandler.CreateConversation)
	conversations.GET("", conversationHandler.ListConversations)
	conversations.GET("/:id", conversationHandler.GetConversation)
	conversations.DELETE("/:id", conversationHandler.DeleteConversation)
	conversations.PUT("/:id/star", conversationHandler.ToggleStar)
	conversations.PUT("/:id/archive", conversationHandler.ToggleArchive)
	conversations.PUT("/:id/read", conversationHandler.MarkAsRead)

	conversations.GET("/:id/messages", conversationHandler.ListMessages)
	conversations.POST("/:id/messages", conversationHandler.SendMessage)
	conversations.DELETE("/:id/messages/:messageId", conversationHandler.DeleteMessage)
}
