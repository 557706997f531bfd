package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/internal/usecase"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
	"aeroclassifieds/pkg/response"
	"aeroclassifieds/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	messageUseCase      *usecase.MessageUseCase
	identity            service.IdentityService
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase, messageUseCase *usecase.MessageUseCase, identity service.IdentityService) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
		messageUseCase:      messageUseCase,
		identity:            identity,
	}
}

type createConversationRequest struct {
	OwnerID      string `json:"owner_id" validate:"required"`
	ListingID    string `json:"listing_id" validate:"required"`
	ListingTitle string `json:"listing_title" validate:"required,max=200"`
}

type toggleRequest struct {
	Current bool `json:"current"`
}

type attachmentRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=image"`
	URL      string `json:"url" validate:"required"`
	Filename string `json:"filename" validate:"max=255"`
}

type sendMessageRequest struct {
	Content    string             `json:"content" validate:"max=4000"`
	Attachment *attachmentRequest `json:"attachment,omitempty"`
}

// CreateConversation opens (or reopens) the caller's conversation with a
// listing owner. The caller is always the customer side.
func (h *ConversationHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	owner, err := h.profile(ctx, req.OwnerID)
	if err != nil {
		return response.Error(c, err)
	}
	customer, err := h.profile(ctx, userID)
	if err != nil {
		return response.Error(c, err)
	}

	id, err := h.conversationUseCase.GetOrCreateConversation(ctx, usecase.GetOrCreateConversationInput{
		OwnerID:           owner.UID,
		OwnerName:         owner.DisplayName,
		OwnerAvatar:       owner.AvatarURL,
		CounterpartID:     customer.UID,
		CounterpartName:   customer.DisplayName,
		CounterpartAvatar: customer.AvatarURL,
		ListingID:         req.ListingID,
		ListingTitle:      req.ListingTitle,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"id": id})
}

func (h *ConversationHandler) ListConversations(c echo.Context) error {
	views, err := h.conversationUseCase.ListConversations(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, views, len(views))
}

func (h *ConversationHandler) GetConversation(c echo.Context) error {
	userID := getUserIDFromContext(c)
	conv, err := h.conversationUseCase.GetConversation(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entity.NewConversationView(conv, userID))
}

func (h *ConversationHandler) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := h.conversationUseCase.GetConversation(ctx, getUserIDFromContext(c), id); err != nil {
		return response.Error(c, err)
	}
	if err := h.conversationUseCase.DeleteConversation(ctx, id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Conversation deleted"})
}

func (h *ConversationHandler) ToggleStar(c echo.Context) error {
	return h.toggle(c, "is_starred", h.conversationUseCase.ToggleStarConversation)
}

func (h *ConversationHandler) ToggleArchive(c echo.Context) error {
	return h.toggle(c, "is_archived", h.conversationUseCase.ToggleArchiveConversation)
}

func (h *ConversationHandler) toggle(c echo.Context, field string, apply func(ctx context.Context, id string, current bool) error) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := h.conversationUseCase.GetConversation(ctx, getUserIDFromContext(c), id); err != nil {
		return response.Error(c, err)
	}
	if err := apply(ctx, id, req.Current); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{field: !req.Current})
}

func (h *ConversationHandler) MarkAsRead(c echo.Context) error {
	if err := h.messageUseCase.MarkMessagesAsRead(c.Request().Context(), c.Param("id"), getUserIDFromContext(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Conversation marked as read"})
}

// ListMessages returns one page of history, newest page first, each page in
// chronological order. total counts the whole conversation.
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	messages, err := h.messageUseCase.ListMessages(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, utils.Latest(messages, utils.GetPaginationParams(c)), len(messages))
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.Attachment != nil {
		if err := c.Validate(req.Attachment); err != nil {
			return response.Error(c, err)
		}
	}

	userID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	input := usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		SenderID:       userID,
		Content:        req.Content,
	}
	if sender, err := h.profile(ctx, userID); err == nil {
		input.SenderName = sender.DisplayName
		input.SenderAvatar = sender.AvatarURL
	}
	if req.Attachment != nil {
		input.Attachment = &entity.Attachment{
			Type:     req.Attachment.Type,
			URL:      req.Attachment.URL,
			Filename: req.Attachment.Filename,
		}
	}

	message, err := h.messageUseCase.SendMessage(ctx, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ConversationHandler) DeleteMessage(c echo.Context) error {
	err := h.messageUseCase.DeleteMessage(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Message deleted"})
}

// profile resolves display details for uid. An unknown user is an error;
// identity backend failures degrade to a bare uid.
func (h *ConversationHandler) profile(ctx context.Context, uid string) (*entity.Profile, error) {
	if uid == "" {
		return nil, errors.Unauthorized("User not authenticated", nil)
	}
	if h.identity == nil {
		return &entity.Profile{UID: uid}, nil
	}

	p, err := h.identity.GetProfile(ctx, uid)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		logger.Warn("Profile lookup for %s failed, continuing without display data: %v", uid, err)
		return &entity.Profile{UID: uid}, nil
	}
	return p, nil
}

func getUserIDFromContext(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok {
		return uid
	}
	return ""
}
