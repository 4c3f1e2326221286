package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handwave-community/handwave/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, msg *models.MeetingMessage) error {
	query := `
		INSERT INTO meeting_messages (message_id, channel_id, meeting_id)
		VALUES ($1, $2, $3)`

	_, err := s.pool.Exec(ctx, query, msg.MessageID, msg.ChannelID, msg.MeetingID)
	if err != nil {
		return fmt.Errorf("insert meeting message: %w", err)
	}
	return nil
}

func (s *MessageStore) Get(ctx context.Context, messageID string) (*models.MeetingMessage, error) {
	query := `
		SELECT message_id, channel_id, meeting_id
		FROM meeting_messages
		WHERE message_id = $1`

	var msg models.MeetingMessage
	err := s.pool.QueryRow(ctx, query, messageID).Scan(&msg.MessageID, &msg.ChannelID, &msg.MeetingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) ListByMeeting(ctx context.Context, meetingID int64) ([]models.MeetingMessage, error) {
	query := `
		SELECT message_id, channel_id, meeting_id
		FROM meeting_messages
		WHERE meeting_id = $1`

	rows, err := s.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list meeting messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.MeetingMessage, 0)
	for rows.Next() {
		var msg models.MeetingMessage
		if err := rows.Scan(&msg.MessageID, &msg.ChannelID, &msg.MeetingID); err != nil {
			return nil, fmt.Errorf("scan meeting message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meeting messages: %w", err)
	}
	return messages, nil
}

func (s *MessageStore) Remove(ctx context.Context, messageID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM meeting_messages WHERE message_id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("remove meeting message: %w", err)
	}
	return nil
}

// Swap replaces the old binding with the new one in a single
// transaction, so a repost never leaves the meeting with zero or two
// bindings for the same slot.
func (s *MessageStore) Swap(ctx context.Context, oldID string, msg *models.MeetingMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM meeting_messages WHERE message_id = $1`, oldID); err != nil {
		return fmt.Errorf("remove old binding: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO meeting_messages (message_id, channel_id, meeting_id)
		VALUES ($1, $2, $3)`,
		msg.MessageID, msg.ChannelID, msg.MeetingID); err != nil {
		return fmt.Errorf("insert new binding: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
