package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type contentRepo struct {
	s *Store
}

const (
	topicColumns   = `id, name, intro_file_id, edu_plan_file_id, created_at, updated_at`
	blockColumns   = `id, topic_id, name, content_file_id, created_at, updated_at`
	chapterColumns = `id, topic_id, block_id, name, content_file_id, created_at, updated_at`
)

func (r *contentRepo) Topics(ctx context.Context) ([]Topic, error) {
	return queryAll(ctx, r.s, "list topics", `SELECT `+topicColumns+` FROM topics ORDER BY id`, scanTopic)
}

func (r *contentRepo) Blocks(ctx context.Context) ([]Block, error) {
	return queryAll(ctx, r.s, "list blocks", `SELECT `+blockColumns+` FROM blocks ORDER BY topic_id, id`, scanBlock)
}

func (r *contentRepo) Chapters(ctx context.Context) ([]Chapter, error) {
	return queryAll(ctx, r.s, "list chapters",
		`SELECT `+chapterColumns+` FROM chapters ORDER BY topic_id, block_id, id`, scanChapter)
}

func (r *contentRepo) Topic(ctx context.Context, id int64) (*Topic, error) {
	return queryOne(ctx, r.s, "topic", id, `SELECT `+topicColumns+` FROM topics WHERE id = ?`, scanTopic)
}

func (r *contentRepo) Block(ctx context.Context, id int64) (*Block, error) {
	return queryOne(ctx, r.s, "block", id, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, scanBlock)
}

func (r *contentRepo) Chapter(ctx context.Context, id int64) (*Chapter, error) {
	return queryOne(ctx, r.s, "chapter", id, `SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, scanChapter)
}

func (r *contentRepo) CreateTopic(ctx context.Context, t *Topic) error {
	t.CreatedAt, t.UpdatedAt = stamp()
	id, err := r.s.insertID(ctx, r.s.db, "create topic",
		`INSERT INTO topics (name, intro_file_id, edu_plan_file_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.Name, nullString(t.IntroFileID), nullString(t.EduPlanFileID), t.CreatedAt, t.UpdatedAt)
	t.ID = id
	return err
}

func (r *contentRepo) CreateBlock(ctx context.Context, b *Block) error {
	b.CreatedAt, b.UpdatedAt = stamp()
	id, err := r.s.insertID(ctx, r.s.db, "create block",
		`INSERT INTO blocks (topic_id, name, content_file_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		b.TopicID, b.Name, nullString(b.ContentFileID), b.CreatedAt, b.UpdatedAt)
	b.ID = id
	return err
}

func (r *contentRepo) CreateChapter(ctx context.Context, c *Chapter) error {
	c.CreatedAt, c.UpdatedAt = stamp()
	id, err := r.s.insertID(ctx, r.s.db, "create chapter",
		`INSERT INTO chapters (topic_id, block_id, name, content_file_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.TopicID, c.BlockID, c.Name, nullString(c.ContentFileID), c.CreatedAt, c.UpdatedAt)
	c.ID = id
	return err
}

func scanTopic(row rowScanner) (Topic, error) {
	var (
		t              Topic
		intro, eduPlan sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &intro, &eduPlan, &t.CreatedAt, &t.UpdatedAt)
	t.IntroFileID, t.EduPlanFileID = intro.String, eduPlan.String
	return t, err
}

func scanBlock(row rowScanner) (Block, error) {
	var (
		b    Block
		file sql.NullString
	)
	err := row.Scan(&b.ID, &b.TopicID, &b.Name, &file, &b.CreatedAt, &b.UpdatedAt)
	b.ContentFileID = file.String
	return b, err
}

func scanChapter(row rowScanner) (Chapter, error) {
	var (
		c    Chapter
		file sql.NullString
	)
	err := row.Scan(&c.ID, &c.TopicID, &c.BlockID, &c.Name, &file, &c.CreatedAt, &c.UpdatedAt)
	c.ContentFileID = file.String
	return c, err
}

func queryAll[T any](ctx context.Context, s *Store, op, query string, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		out = append(out, v)
	}
	return out, persistErr(op, rows.Err())
}

func queryOne[T any](ctx context.Context, s *Store, entity string, id int64, query string, scan func(rowScanner) (T, error)) (*T, error) {
	v, err := scan(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(entity, id)
	}
	if err != nil {
		return nil, persistErr("get "+entity, err)
	}
	return &v, nil
}

// stamp returns created/updated timestamps truncated to microseconds, the
// precision both SQLite and PostgreSQL round-trip.
func stamp() (time.Time, time.Time) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return now, now
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
