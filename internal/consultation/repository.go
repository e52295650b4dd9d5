package consultation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrSessionNotFound is returned when a session token does not resolve.
var ErrSessionNotFound = fmt.Errorf("consultation session not found")

// Repository is append-only: sessions and messages are inserted once and
// never updated or deleted here.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	AppendMessage(ctx context.Context, m *ChatMessage) error
	ListMessages(ctx context.Context, consultationID uuid.UUID) ([]ChatMessage, error)
}

type postgresRepo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) CreateSession(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO consultation_sessions (id, user_id, session_token, symptoms, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.SessionToken, s.Symptoms, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	query := `
		SELECT id, user_id, session_token, symptoms, created_at
		FROM consultation_sessions
		WHERE session_token = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var s Session
	if err := r.db.GetContext(ctx, &s, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

func (r *postgresRepo) AppendMessage(ctx context.Context, m *ChatMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	var metadataJSON []byte
	if m.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal message metadata: %w", err)
		}
	}

	query := `
		INSERT INTO chat_messages (id, consultation_id, is_ai, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConsultationID, m.IsAI, m.Message, metadataJSON, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListMessages(ctx context.Context, consultationID uuid.UUID) ([]ChatMessage, error) {
	query := `
		SELECT id, consultation_id, is_ai, message, metadata, created_at
		FROM chat_messages
		WHERE consultation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryxContext(ctx, query, consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var metadataJSON []byte
		if err := rows.Scan(&m.ID, &m.ConsultationID, &m.IsAI, &m.Message, &metadataJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(metadataJSON) > 0 {
			var md MessageMetadata
			if err := json.Unmarshal(metadataJSON, &md); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
			m.Metadata = &md
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
