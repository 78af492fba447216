package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jadenj13/caseai/internals/chat"
)

const DefaultHistoryLimit = 20

type Message struct {
	ID        string
	CaseID    string
	Role      chat.Role
	Content   string
	CreatedAt time.Time
}

func (s *Store) AppendMessage(ctx context.Context, caseID string, role chat.Role, content string) (Message, error) {
	switch role {
	case chat.RoleUser, chat.RoleAssistant:
	default:
		return Message{}, fmt.Errorf("append message: unknown role %q", role)
	}

	m := Message{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages(id, case_id, role, content, created_at) VALUES(?, ?, ?, ?, ?)`,
		m.ID, m.CaseID, string(m.Role), m.Content, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// ListMessages returns the whole history of a case, oldest first.
func (s *Store) ListMessages(ctx context.Context, caseID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, case_id, role, content, created_at FROM messages WHERE case_id = ? ORDER BY seq ASC`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return scanMessages(rows)
}

func (s *Store) DeleteMessage(ctx context.Context, caseID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ? AND case_id = ?`, id, caseID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecentTurns returns at most limit of the newest messages of a case as
// text turns, oldest first. Leading assistant turns are dropped so the
// transcript always opens with the user.
func (s *Store) RecentTurns(ctx context.Context, caseID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, case_id, role, content, created_at FROM messages WHERE case_id = ? ORDER BY seq DESC LIMIT ?`,
		caseID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)

	for len(msgs) > 0 && msgs[0].Role != chat.RoleUser {
		msgs = msgs[1:]
	}

	turns := make([]chat.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, chat.Turn{Role: m.Role, Content: []chat.Block{chat.Text{Text: m.Content}}})
	}
	return turns, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var (
			m       Message
			role    string
			created int64
		)
		if err := rows.Scan(&m.ID, &m.CaseID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = chat.Role(role)
		m.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
