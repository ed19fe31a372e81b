package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

// MessageRepository stores the append-only request threads.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message and fills in its id and timestamp.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	const query = `INSERT INTO request_messages (request_id, sender, content)
	VALUES ($1, $2, $3)
	RETURNING id, timestamp`
	if err := r.db.QueryRowxContext(ctx, query, msg.RequestID, msg.Sender, msg.Content).Scan(&msg.ID, &msg.Timestamp); err != nil {
		return fmt.Errorf("create request message: %w", err)
	}
	return nil
}

// ListByRequest returns the thread oldest first.
func (r *MessageRepository) ListByRequest(ctx context.Context, requestID int64) ([]models.Message, error) {
	const query = `SELECT id, request_id, sender, content, timestamp FROM request_messages WHERE request_id = $1 ORDER BY timestamp ASC, id ASC`
	messages := make([]models.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, query, requestID); err != nil {
		return nil, fmt.Errorf("list request messages: %w", err)
	}
	return messages, nil
}
