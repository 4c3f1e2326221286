package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handwave-community/handwave/internal/models"
)

type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

// Upsert keys on (meeting_id, name): Zoom re-sends joined events when
// someone returns from a breakout room, and the display name is the
// stable identity across those. created_at keeps its original value so
// the rendered ordering does not shuffle on rejoin.
func (s *ParticipantStore) Upsert(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (meeting_id, name, zoom_id, email, joined_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (meeting_id, name) DO UPDATE
		SET zoom_id = EXCLUDED.zoom_id,
		    email = EXCLUDED.email,
		    joined_at = EXCLUDED.joined_at`

	_, err := s.pool.Exec(ctx, query, p.MeetingID, p.Name, p.ZoomID, p.Email, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}
	return nil
}

func (s *ParticipantStore) Get(ctx context.Context, meetingID int64, name string) (*models.Participant, error) {
	query := `
		SELECT meeting_id, name, zoom_id, email, joined_at, created_at
		FROM participants
		WHERE meeting_id = $1 AND name = $2`

	var p models.Participant
	err := s.pool.QueryRow(ctx, query, meetingID, name).Scan(
		&p.MeetingID, &p.Name, &p.ZoomID, &p.Email, &p.JoinedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (s *ParticipantStore) ListByMeeting(ctx context.Context, meetingID int64) ([]models.Participant, error) {
	query := `
		SELECT meeting_id, name, zoom_id, email, joined_at, created_at
		FROM participants
		WHERE meeting_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.MeetingID, &p.Name, &p.ZoomID, &p.Email, &p.JoinedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func (s *ParticipantStore) Remove(ctx context.Context, meetingID int64, name string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM participants WHERE meeting_id = $1 AND name = $2`, meetingID, name)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}
