package handler

import (
	"aeroclassifieds/internal/domain/service"
	ws "aeroclassifieds/internal/infrastructure/websocket"
	"aeroclassifieds/internal/usecase"
)

var (
	conversationHandler *ConversationHandler
	fileHandler         *FileHandler
	healthHandler       *HealthHandler
	devTokenHandler     *DevTokenHandler
)

func Setup(
	conversationUseCase *usecase.ConversationUseCase,
	messageUseCase *usecase.MessageUseCase,
	attachmentUseCase *usecase.AttachmentUseCase,
	identity service.IdentityService,
	wsManager *ws.Manager,
	maxFileSize int64,
) {
	conversationHandler = NewConversationHandler(conversationUseCase, messageUseCase, identity)
	fileHandler = NewFileHandler(attachmentUseCase, maxFileSize)
	healthHandler = NewHealthHandler(wsManager)
}

func SetupDevTokenHandler(issuer DevTokenIssuer) {
	devTokenHandler = NewDevTokenHandler(issuer)
}

func GetConversationHandler() *ConversationHandler {
	return conversationHandler
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}
