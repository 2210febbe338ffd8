package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

// ConversationScope restricts conversation listings. ViewerIsCustomer selects which side's unread messages are counted.
type ConversationScope struct {
	CustomerID       *int64
	StaffID          *int64
	ViewerIsCustomer bool
}

// ChatRepository defines database operations for support conversations.
type ChatRepository interface {
	CreateConversation(ctx context.Context, executor SQLExecutor, c *models.Conversation) error
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	ListConversations(ctx context.Context, scope ConversationScope) ([]models.Conversation, error)
	SetConversationStaff(ctx context.Context, executor SQLExecutor, id int64, staffID *int64) error
	InsertMessage(ctx context.Context, executor SQLExecutor, m *models.Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, executor SQLExecutor, conversationID int64, readerIsCustomer bool) error
}

type chatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Unread counters for the viewer: messages sent by the other side that are still unread.
const unreadFromStaff = `(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = cv.id AND m.sender_staff IS NOT NULL AND NOT m.is_read)`
const unreadFromCustomer = `(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = cv.id AND m.sender_customer IS NOT NULL AND NOT m.is_read)`

func conversationSelect(unread string) string {
	return `SELECT cv.id, cv.customer_id, c.full_name, cv.staff_id, st.full_name, cv.last_message, cv.last_message_at, cv.created_at, ` + unread + `
FROM conversations cv
JOIN customers c ON c.id = cv.customer_id
LEFT JOIN staff_members st ON st.id = cv.staff_id`
}

func scanConversation(sc scanner) (*models.Conversation, error) {
	cv := &models.Conversation{}
	var staffName sql.NullString
	err := sc.Scan(&cv.ID, &cv.CustomerID, &cv.CustomerName, &cv.StaffID, &staffName, &cv.LastMessage, &cv.LastMessageAt, &cv.CreatedAt, &cv.UnreadCount)
	if err != nil {
		return nil, err
	}
	if staffName.Valid {
		cv.StaffName = &staffName.String
	}
	return cv, nil
}

func (r *chatRepository) CreateConversation(ctx context.Context, executor SQLExecutor, c *models.Conversation) error {
	err := executor.QueryRowContext(ctx, `INSERT INTO conversations (customer_id, staff_id) VALUES ($1, $2) RETURNING id, created_at`,
		c.CustomerID, c.StaffID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return dbError(err, "creating conversation")
	}
	return nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	cv, err := scanConversation(r.db.QueryRowContext(ctx, conversationSelect("0")+` WHERE cv.id = $1`, id))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting conversation %d", id))
	}
	return cv, nil
}

// ListConversations returns conversations in scope, most recent activity first.
func (r *chatRepository) ListConversations(ctx context.Context, scope ConversationScope) ([]models.Conversation, error) {
	unread := unreadFromCustomer
	if scope.ViewerIsCustomer {
		unread = unreadFromStaff
	}
	var conditions []string
	var args []interface{}
	if scope.CustomerID != nil {
		args = append(args, *scope.CustomerID)
		conditions = append(conditions, fmt.Sprintf("cv.customer_id = $%d", len(args)))
	}
	if scope.StaffID != nil {
		args = append(args, *scope.StaffID)
		conditions = append(conditions, fmt.Sprintf("cv.staff_id = $%d", len(args)))
	}
	query := conversationSelect(unread)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY COALESCE(cv.last_message_at, cv.created_at) DESC`, args...)
	if err != nil {
		return nil, dbError(err, "listing conversations")
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		cv, err := scanConversation(rows)
		if err != nil {
			return nil, dbError(err, "scanning conversation")
		}
		out = append(out, *cv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating conversations")
	}
	return out, nil
}

func (r *chatRepository) SetConversationStaff(ctx context.Context, executor SQLExecutor, id int64, staffID *int64) error {
	res, err := executor.ExecContext(ctx, `UPDATE conversations SET staff_id = $1 WHERE id = $2`, staffID, id)
	return expectAffected(res, err, "assigning conversation")
}

// InsertMessage stores the message and refreshes the conversation preview.
func (r *chatRepository) InsertMessage(ctx context.Context, executor SQLExecutor, m *models.Message) error {
	err := executor.QueryRowContext(ctx, `INSERT INTO messages (conversation_id, sender_customer, sender_staff, body)
		VALUES ($1, $2, $3, $4) RETURNING id, is_read, sent_at`, m.ConversationID, m.SenderCustomerID, m.SenderStaffID, m.Body).
		Scan(&m.ID, &m.IsRead, &m.SentAt)
	if err != nil {
		return dbError(err, "inserting message")
	}
	res, err := executor.ExecContext(ctx, `UPDATE conversations SET last_message = $1, last_message_at = $2 WHERE id = $3`,
		utils.Truncate(m.Body, 120), m.SentAt, m.ConversationID)
	return expectAffected(res, err, "updating conversation preview")
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT m.id, m.conversation_id, m.sender_customer, m.sender_staff,
		COALESCE(c.full_name, st.full_name, ''), m.body, m.is_read, m.sent_at
		FROM messages m
		LEFT JOIN customers c ON c.id = m.sender_customer
		LEFT JOIN staff_members st ON st.id = m.sender_staff
		WHERE m.conversation_id = $1 ORDER BY m.sent_at ASC, m.id ASC`, conversationID)
	if err != nil {
		return nil, dbError(err, "listing messages")
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderCustomerID, &m.SenderStaffID, &m.SenderName, &m.Body, &m.IsRead, &m.SentAt); err != nil {
			return nil, dbError(err, "scanning message")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating messages")
	}
	return out, nil
}

// MarkRead marks the other side's messages in the conversation as read.
func (r *chatRepository) MarkRead(ctx context.Context, executor SQLExecutor, conversationID int64, readerIsCustomer bool) error {
	side := "sender_customer"
	if readerIsCustomer {
		side = "sender_staff"
	}
	_, err := executor.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE conversation_id = $1 AND NOT is_read AND `+side+` IS NOT NULL`, conversationID)
	if err != nil {
		return dbError(err, "marking messages read")
	}
	return nil
}
