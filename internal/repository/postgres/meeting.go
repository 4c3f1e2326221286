package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handwave-community/handwave/internal/models"
)

type MeetingStore struct {
	pool *pgxpool.Pool
}

func NewMeetingStore(pool *pgxpool.Pool) *MeetingStore {
	return &MeetingStore{pool: pool}
}

const meetingColumns = `meeting_id, owner, join_url, passcode, topic, host_id, created_at, setup_at`

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var m models.Meeting
	var hostID *string
	err := row.Scan(
		&m.ID,
		&m.Owner,
		&m.JoinURL,
		&m.Passcode,
		&m.Topic,
		&hostID,
		&m.CreatedAt,
		&m.SetupAt,
	)
	if err != nil {
		return nil, err
	}
	if hostID != nil {
		m.HostID = *hostID
	}
	return &m, nil
}

func (s *MeetingStore) Create(ctx context.Context, m *models.Meeting) error {
	query := `
		INSERT INTO meetings (meeting_id, owner, join_url, passcode, topic, created_at, setup_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query, m.ID, m.Owner, m.JoinURL, m.Passcode, m.Topic, m.CreatedAt, m.SetupAt)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

// CreateWithMessage inserts the meeting and its first bound message in
// one transaction. Either both rows land or neither does.
func (s *MeetingStore) CreateWithMessage(ctx context.Context, m *models.Meeting, msg *models.MeetingMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO meetings (meeting_id, owner, join_url, passcode, topic, created_at, setup_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Owner, m.JoinURL, m.Passcode, m.Topic, m.CreatedAt, m.SetupAt)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO meeting_messages (message_id, channel_id, meeting_id)
		VALUES ($1, $2, $3)`,
		msg.MessageID, msg.ChannelID, msg.MeetingID)
	if err != nil {
		return fmt.Errorf("insert meeting message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *MeetingStore) Get(ctx context.Context, meetingID int64) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE meeting_id = $1`

	m, err := scanMeeting(s.pool.QueryRow(ctx, query, meetingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return m, nil
}

func (s *MeetingStore) Exists(ctx context.Context, meetingID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM meetings WHERE meeting_id = $1)`, meetingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("meeting exists: %w", err)
	}
	return exists, nil
}

func (s *MeetingStore) End(ctx context.Context, meetingID int64) error {
	// Messages and participants go with the meeting via ON DELETE CASCADE.
	_, err := s.pool.Exec(ctx, `DELETE FROM meetings WHERE meeting_id = $1`, meetingID)
	if err != nil {
		return fmt.Errorf("end meeting: %w", err)
	}
	return nil
}

func (s *MeetingStore) SetHostID(ctx context.Context, meetingID int64, hostID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET host_id = $2 WHERE meeting_id = $1`, meetingID, hostID)
	if err != nil {
		return fmt.Errorf("set host id: %w", err)
	}
	return nil
}

func (s *MeetingStore) MarkSetUp(ctx context.Context, meetingID int64, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET setup_at = $2 WHERE meeting_id = $1`, meetingID, at)
	if err != nil {
		return fmt.Errorf("mark set up: %w", err)
	}
	return nil
}

func (s *MeetingStore) LatestPendingForOwner(ctx context.Context, owner string) (*models.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE owner = $1 AND setup_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`

	m, err := scanMeeting(s.pool.QueryRow(ctx, query, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest pending for owner: %w", err)
	}
	return m, nil
}

func (s *MeetingStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE setup_at IS NULL AND created_at < $1`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale pending: %w", err)
	}
	defer rows.Close()

	meetings := make([]models.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return meetings, nil
}
