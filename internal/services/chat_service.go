package services

import (
	"context"
	"errors"
	"strings"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
)

const maxMessageLength = 2000

// StartConversationRequest DTO
type StartConversationRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessageRequest DTO
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// ConversationDetail DTO
type ConversationDetail struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.Message     `json:"messages"`
}

// ChatService runs customer support conversations.
type ChatService interface {
	ListConversations(ctx context.Context, actor models.Actor) ([]models.Conversation, error)
	StartConversation(ctx context.Context, actor models.Actor, req StartConversationRequest) (*ConversationDetail, error)
	ListMessages(ctx context.Context, actor models.Actor, conversationID int64) (*ConversationDetail, error)
	SendMessage(ctx context.Context, actor models.Actor, conversationID int64, req SendMessageRequest) (*models.Message, error)
	AssignConversation(ctx context.Context, conversationID, staffID int64) (*models.Conversation, error)
	UnassignConversation(ctx context.Context, conversationID int64) (*models.Conversation, error)
}

type chatService struct {
	repo      repositories.ChatRepository
	staffRepo repositories.StaffRepository
	db        repositories.SQLExecutor
	tx        TxRunner
}

// NewChatService creates a new instance of ChatService.
func NewChatService(repo repositories.ChatRepository, staffRepo repositories.StaffRepository, db repositories.SQLExecutor, tx TxRunner) ChatService {
	return &chatService{repo: repo, staffRepo: staffRepo, db: db, tx: tx}
}

// scopeFor returns the conversations an actor may see: customers their own,
// technicians those assigned to them, everyone else all of them.
func scopeFor(actor models.Actor) repositories.ConversationScope {
	switch {
	case actor.IsCustomer():
		return repositories.ConversationScope{CustomerID: &actor.ID, ViewerIsCustomer: true}
	case actor.Role == models.RoleTechnician:
		return repositories.ConversationScope{StaffID: &actor.ID}
	}
	return repositories.ConversationScope{}
}

func visible(actor models.Actor, cv *models.Conversation) bool {
	scope := scopeFor(actor)
	if scope.CustomerID != nil && cv.CustomerID != *scope.CustomerID {
		return false
	}
	if scope.StaffID != nil && (cv.StaffID == nil || *cv.StaffID != *scope.StaffID) {
		return false
	}
	return true
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyMessage
	}
	if len([]rune(body)) > maxMessageLength {
		return "", validationf("message is longer than %d characters", maxMessageLength)
	}
	return body, nil
}

func (s *chatService) ListConversations(ctx context.Context, actor models.Actor) ([]models.Conversation, error) {
	return s.repo.ListConversations(ctx, scopeFor(actor))
}

func (s *chatService) conversation(ctx context.Context, actor models.Actor, id int64) (*models.Conversation, error) {
	cv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !visible(actor, cv) {
		return nil, ErrConversationNotFound
	}
	return cv, nil
}

func newMessage(actor models.Actor, conversationID int64, body string) *models.Message {
	m := &models.Message{ConversationID: conversationID, Body: body}
	if actor.IsCustomer() {
		m.SenderCustomerID = &actor.ID
	} else {
		m.SenderStaffID = &actor.ID
	}
	return m
}

func (s *chatService) StartConversation(ctx context.Context, actor models.Actor, req StartConversationRequest) (*ConversationDetail, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	body, err := cleanBody(req.Message)
	if err != nil {
		return nil, err
	}
	cv := &models.Conversation{CustomerID: actor.ID}
	var msg *models.Message
	err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.repo.CreateConversation(ctx, tx, cv); err != nil {
			return err
		}
		msg = newMessage(actor, cv.ID, body)
		return s.repo.InsertMessage(ctx, tx, msg)
	})
	if err != nil {
		return nil, err
	}
	created, err := s.repo.GetConversation(ctx, cv.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: created, Messages: []models.Message{*msg}}, nil
}

// ListMessages returns the thread and marks the other side's messages read.
func (s *chatService) ListMessages(ctx context.Context, actor models.Actor, conversationID int64) (*ConversationDetail, error) {
	cv, err := s.conversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, s.db, conversationID, actor.IsCustomer()); err != nil {
		return nil, err
	}
	cv.UnreadCount = 0
	return &ConversationDetail{Conversation: cv, Messages: msgs}, nil
}

func (s *chatService) SendMessage(ctx context.Context, actor models.Actor, conversationID int64, req SendMessageRequest) (*models.Message, error) {
	body, err := cleanBody(req.Body)
	if err != nil {
		return nil, err
	}
	if _, err := s.conversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	msg := newMessage(actor, conversationID, body)
	if err := s.repo.InsertMessage(ctx, s.db, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) setStaff(ctx context.Context, conversationID int64, staffID *int64) (*models.Conversation, error) {
	if err := s.repo.SetConversationStaff(ctx, s.db, conversationID, staffID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.repo.GetConversation(ctx, conversationID)
}

func (s *chatService) AssignConversation(ctx context.Context, conversationID, staffID int64) (*models.Conversation, error) {
	st, err := s.staffRepo.GetStaffByID(ctx, nil, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !st.IsActive {
		return nil, newError(ErrValidation, "staff member is inactive")
	}
	return s.setStaff(ctx, conversationID, &staffID)
}

func (s *chatService) UnassignConversation(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	return s.setStaff(ctx, conversationID, nil)
}
