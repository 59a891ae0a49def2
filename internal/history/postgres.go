package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
)

// Postgres is the production Store, backed by a pgx connection pool.
// Schema lives in db/migrations.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store on an existing pool. The pool's
// lifecycle belongs to the caller.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateChat(ctx context.Context) (Chat, error) {
	const q = `
		INSERT INTO chats (id, title)
		VALUES ($1, '')
		RETURNING id, title, created_at, updated_at`

	var chat Chat
	err := s.pool.QueryRow(ctx, q, uuid.New()).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return Chat{}, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

func (s *Postgres) Chat(ctx context.Context, id uuid.UUID) (Chat, error) {
	const q = `
		SELECT id, title, created_at, updated_at
		FROM chats
		WHERE id = $1`

	var chat Chat
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Chat{}, ErrNotFound
	}
	if err != nil {
		return Chat{}, fmt.Errorf("loading chat: %w", err)
	}
	return chat, nil
}

func (s *Postgres) ListChats(ctx context.Context) ([]Chat, error) {
	const q = `
		SELECT id, title, created_at, updated_at
		FROM chats
		ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	chats := []Chat{}
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chats: %w", err)
	}
	return chats, nil
}

func (s *Postgres) DeleteChat(ctx context.Context, id uuid.UUID) error {
	// Turns go with the chat via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Turns(ctx context.Context, chatID uuid.UUID) ([]compose.Turn, error) {
	const q = `
		SELECT role, text, created_at
		FROM turns
		WHERE chat_id = $1
		ORDER BY sequence ASC`

	rows, err := s.pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	turns := []compose.Turn{}
	for rows.Next() {
		var turn compose.Turn
		if err := rows.Scan(&turn.Role, &turn.Text, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading turns: %w", err)
	}
	return turns, nil
}

func (s *Postgres) AppendTurns(ctx context.Context, chatID uuid.UUID, turns []compose.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insert = `
		INSERT INTO turns (chat_id, role, text, created_at, sequence)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(sequence), 0) + 1 FROM turns WHERE chat_id = $1))`

	for _, turn := range turns {
		if _, err := tx.Exec(ctx, insert, chatID, turn.Role, turn.Text, turn.CreatedAt); err != nil {
			// An unknown chat surfaces as a violation of turns_chat_id_fkey
			// on the first insert.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return ErrNotFound
			}
			return fmt.Errorf("inserting turn: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `UPDATE chats SET updated_at = now() WHERE id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("touching chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing append: %w", err)
	}
	return nil
}

func (s *Postgres) SetTitle(ctx context.Context, chatID uuid.UUID, title string) error {
	const q = `
		UPDATE chats
		SET title = $2, updated_at = now()
		WHERE id = $1 AND title = ''`

	tag, err := s.pool.Exec(ctx, q, chatID, title)
	if err != nil {
		return fmt.Errorf("setting title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the chat is gone or the title was already set. Only the
		// former is an error.
		if _, err := s.Chat(ctx, chatID); err != nil {
			return err
		}
	}
	return nil
}
