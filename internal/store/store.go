package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/askweb/config"
	"github.com/mohammad-safakhou/askweb/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

type Store struct {
	DB *sql.DB
}

// New opens the conversation store from configuration.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// ConversationSummary is the listing shape: metadata without the message body.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation is the full record including the message history.
type Conversation struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SaveConversation inserts or replaces a conversation's history. A new id is
// generated when convID is empty. The title is only set on first insert.
func (s *Store) SaveConversation(ctx context.Context, userID, convID, title string, messages []models.Message) (string, error) {
	if convID == "" {
		convID = uuid.NewString()
	}
	body, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
INSERT INTO conversations (id, user_id, title, messages, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())
ON CONFLICT (id) DO UPDATE SET
  messages   = EXCLUDED.messages,
  updated_at = NOW()
WHERE conversations.user_id = EXCLUDED.user_id;
`, convID, userID, title, body)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", ErrNotFound
	}
	return convID, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, created_at, updated_at
FROM conversations
WHERE user_id=$1
ORDER BY updated_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ConversationSummary{}
	for rows.Next() {
		var c ConversationSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetConversation(ctx context.Context, userID, convID string) (Conversation, error) {
	var (
		c    Conversation
		body []byte
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT id, title, messages, created_at, updated_at
FROM conversations
WHERE id=$1 AND user_id=$2
`, convID, userID).Scan(&c.ID, &c.Title, &body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	if err := json.Unmarshal(body, &c.Messages); err != nil {
		return Conversation{}, fmt.Errorf("decode messages: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteConversation(ctx context.Context, userID, convID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1 AND user_id=$2`, convID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
