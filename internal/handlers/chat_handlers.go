package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
)

// ChatHandler serves support conversations for customers and staff.
type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(cs services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: cs}
}

// ListConversations returns the conversations visible to the caller.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	convs, err := h.chatService.ListConversations(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "ListConversations")
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

// StartConversation opens a conversation with a first message. Customers only.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.StartConversationRequest
	if !bindJSON(c, &req, "StartConversation") {
		return
	}
	detail, err := h.chatService.StartConversation(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "StartConversation")
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListMessages returns the thread and marks the other side's messages read.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.chatService.ListMessages(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "ListMessages")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.SendMessageRequest
	if !bindJSON(c, &req, "SendMessage") {
		return
	}
	msg, err := h.chatService.SendMessage(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err, "SendMessage")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) AssignConversation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req assignStaffRequest
	if !bindJSON(c, &req, "AssignConversation") {
		return
	}
	conv, err := h.chatService.AssignConversation(c.Request.Context(), id, req.StaffID)
	if err != nil {
		respondServiceError(c, err, "AssignConversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ChatHandler) UnassignConversation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	conv, err := h.chatService.UnassignConversation(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "UnassignConversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}
