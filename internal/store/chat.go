package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type chatRepo struct {
	s *Store
}

func (r *chatRepo) Active(ctx context.Context, studentID int64) (*Chat, error) {
	st, err := r.s.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.ActiveChatID != nil {
		return r.Get(ctx, *st.ActiveChatID)
	}

	now := time.Now().UTC()
	chatID, err := r.s.insertID(ctx, r.s.db, "create chat",
		`INSERT INTO chats (student_id, created_at, updated_at) VALUES (?, ?, ?)`,
		studentID, now, now)
	if err != nil {
		return nil, err
	}

	// Only the first writer links its chat; a concurrent loser discards its
	// own row and adopts the winner's.
	res, err := r.s.db.ExecContext(ctx,
		r.s.rebind(`UPDATE students SET active_chat_id = ?, updated_at = ? WHERE id = ? AND active_chat_id IS NULL`),
		chatID, now, studentID)
	if err != nil {
		return nil, persistErr("link active chat", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, persistErr("link active chat", err)
	}
	if n == 1 {
		return r.Get(ctx, chatID)
	}

	if _, err := r.s.db.ExecContext(ctx, r.s.rebind(`DELETE FROM chats WHERE id = ?`), chatID); err != nil {
		return nil, persistErr("discard chat", err)
	}
	st, err = r.s.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.ActiveChatID == nil {
		return nil, notFound("active chat for student", studentID)
	}
	return r.Get(ctx, *st.ActiveChatID)
}

func (r *chatRepo) Get(ctx context.Context, id int64) (*Chat, error) {
	var c Chat
	err := r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT id, student_id, created_at, updated_at FROM chats WHERE id = ?`), id,
	).Scan(&c.ID, &c.StudentID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("chat", id)
	}
	if err != nil {
		return nil, persistErr("get chat", err)
	}
	return &c, nil
}

func (r *chatRepo) AppendMessage(ctx context.Context, chatID int64, role Role, text string) (*Message, error) {
	now := time.Now().UTC()
	id, err := r.s.insertID(ctx, r.s.db, "append message",
		`INSERT INTO messages (chat_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		chatID, string(role), text, now)
	if err != nil {
		return nil, err
	}
	return &Message{ID: id, ChatID: chatID, Role: role, Text: text, CreatedAt: now}, nil
}

func (r *chatRepo) Messages(ctx context.Context, chatID int64) ([]Message, error) {
	rows, err := r.s.db.QueryContext(ctx,
		r.s.rebind(`SELECT id, chat_id, role, text, created_at FROM messages WHERE chat_id = ? ORDER BY id`), chatID)
	if err != nil {
		return nil, persistErr("list messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m    Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &role, &m.Text, &m.CreatedAt); err != nil {
			return nil, persistErr("list messages", err)
		}
		m.Role = Role(role)
		out = append(out, m)
	}
	return out, persistErr("list messages", rows.Err())
}
