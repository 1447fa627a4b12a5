package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/aimentor/internal/expert"
)

const studentColumns = `id, account_id, current_expert,
	current_topic, current_block, current_chapter,
	programming_experience, education_background, learning_goals, career_goals,
	timeline, learning_style, lesson_duration, preferred_difficulty,
	recommended_topics, recommended_blocks,
	approved_topics, approved_blocks, approved_chapters,
	assessment_score, strong_areas, weak_areas,
	active_chat_id, created_at, updated_at`

type studentRepo struct {
	s *Store
}

func (r *studentRepo) Create(ctx context.Context, accountID *int64) (*Student, error) {
	id, err := createStudent(ctx, r.s, r.s.db, accountID)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func createStudent(ctx context.Context, s *Store, q querier, accountID *int64) (int64, error) {
	now := time.Now().UTC()
	return s.insertID(ctx, q, "create student",
		`INSERT INTO students (account_id, current_expert, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		nullInt64(accountID), string(expert.Default), now, now)
}

func (r *studentRepo) Get(ctx context.Context, id int64) (*Student, error) {
	return getStudent(ctx, r.s, r.s.db, id, false)
}

func getStudent(ctx context.Context, s *Store, q querier, id int64, forUpdate bool) (*Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = ?`
	if forUpdate && s.dialect == Postgres {
		query += " FOR UPDATE"
	}
	st, err := scanStudent(q.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("student", id)
	}
	if err != nil {
		return nil, persistErr("get student", err)
	}
	return st, nil
}

func (r *studentRepo) GetByAccount(ctx context.Context, accountID int64) (*Student, error) {
	st, err := scanStudent(r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT `+studentColumns+` FROM students WHERE account_id = ? ORDER BY id LIMIT 1`), accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("student for account", accountID)
	}
	if err != nil {
		return nil, persistErr("get student by account", err)
	}
	return st, nil
}

func (r *studentRepo) List(ctx context.Context) ([]Student, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, persistErr("list students", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, persistErr("list students", err)
		}
		out = append(out, *st)
	}
	return out, persistErr("list students", rows.Err())
}

// UpdateProfile applies u inside a transaction. Recommended topics and
// blocks are merged into the stored maps by key; entries are never removed.
func (r *studentRepo) UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) error {
	if u.AssessmentScore != nil && (*u.AssessmentScore < 0 || *u.AssessmentScore > 100) {
		return fmt.Errorf("assessment score %d out of range 0..100", *u.AssessmentScore)
	}

	const op = "update student profile"
	return r.s.inTx(ctx, op, func(tx *sql.Tx) error {
		st, err := getStudent(ctx, r.s, tx, id, true)
		if err != nil {
			return err
		}

		var (
			sets []string
			args []any
		)
		text := func(col string, v *string) {
			if v != nil {
				sets = append(sets, col+" = ?")
				args = append(args, *v)
			}
		}
		text("programming_experience", u.ProgrammingExperience)
		text("education_background", u.EducationBackground)
		text("learning_goals", u.LearningGoals)
		text("career_goals", u.CareerGoals)
		text("timeline", u.Timeline)
		text("learning_style", u.LearningStyle)
		text("lesson_duration", u.LessonDuration)
		text("preferred_difficulty", u.PreferredDifficulty)

		if u.AssessmentScore != nil {
			sets = append(sets, "assessment_score = ?")
			args = append(args, *u.AssessmentScore)
		}

		for _, c := range []struct {
			col string
			val any
			set bool
		}{
			{"strong_areas", u.StrongAreas, u.StrongAreas != nil},
			{"weak_areas", u.WeakAreas, u.WeakAreas != nil},
			{"recommended_topics", mergeRefs(st.RecommendedTopics, u.RecommendedTopics), len(u.RecommendedTopics) > 0},
			{"recommended_blocks", mergeRefs(st.RecommendedBlocks, u.RecommendedBlocks), len(u.RecommendedBlocks) > 0},
		} {
			if !c.set {
				continue
			}
			v, err := encodeJSON(c.val)
			if err != nil {
				return fmt.Errorf("encode %s: %w", c.col, err)
			}
			sets = append(sets, c.col+" = ?")
			args = append(args, v)
		}

		if len(sets) == 0 {
			return nil
		}
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC(), id)
		_, err = tx.ExecContext(ctx,
			r.s.rebind(`UPDATE students SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
		return persistErr(op, err)
	})
}

// mergeRefs returns a copy of stored with every entry of add written over it.
func mergeRefs(stored, add IDNameMap) IDNameMap {
	out := make(IDNameMap, len(stored)+len(add))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range add {
		out[k] = v
	}
	return out
}

func (r *studentRepo) SetCurrentContent(ctx context.Context, id int64, p ContentPointers) error {
	var args []any
	for _, ref := range []Ref{p.Topic, p.Block, p.Chapter} {
		v, err := encodeJSON(Pointer(ref))
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	return r.update(ctx, "set current content", id,
		[]string{"current_topic = ?", "current_block = ?", "current_chapter = ?"}, args)
}

func (r *studentRepo) Approve(ctx context.Context, id int64, progress Progress, ref Ref) error {
	switch progress {
	case ApprovedTopics, ApprovedBlocks, ApprovedChapters:
	default:
		return fmt.Errorf("unknown progress map %q", progress)
	}

	op := "approve " + strings.TrimPrefix(string(progress), "approved_")
	return r.s.inTx(ctx, op, func(tx *sql.Tx) error {
		st, err := getStudent(ctx, r.s, tx, id, true)
		if err != nil {
			return err
		}

		var m IDNameMap
		switch progress {
		case ApprovedTopics:
			m = st.ApprovedTopics
		case ApprovedBlocks:
			m = st.ApprovedBlocks
		case ApprovedChapters:
			m = st.ApprovedChapters
		}
		if m == nil {
			m = IDNameMap{}
		}
		m[ref.ID] = ref.Name

		v, err := encodeJSON(m)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			r.s.rebind(`UPDATE students SET `+string(progress)+` = ?, updated_at = ? WHERE id = ?`),
			v, time.Now().UTC(), id)
		return persistErr(op, err)
	})
}

func (r *studentRepo) SetExpert(ctx context.Context, id int64, e expert.Expert) error {
	if !e.Valid() {
		return fmt.Errorf("unknown expert %q", e)
	}
	return r.update(ctx, "set expert", id, []string{"current_expert = ?"}, []any{string(e)})
}

// update runs UPDATE students SET <sets>, updated_at WHERE id and reports a
// *NotFoundError when no row matched.
func (r *studentRepo) update(ctx context.Context, op string, id int64, sets []string, args []any) error {
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.s.db.ExecContext(ctx,
		r.s.rebind(`UPDATE students SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return persistErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr(op, err)
	}
	if n == 0 {
		return notFound("student", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*Student, error) {
	var (
		st                                   Student
		accountID, activeChat                sql.NullInt64
		score                                sql.NullInt64
		curExpert                            string
		curTopic, curBlock, curChapter       sql.NullString
		exp, edu, goals, career, timeline    sql.NullString
		style, duration, difficulty          sql.NullString
		recTopics, recBlocks                 sql.NullString
		apprTopics, apprBlocks, apprChapters sql.NullString
		strong, weak                         sql.NullString
	)
	err := row.Scan(&st.ID, &accountID, &curExpert,
		&curTopic, &curBlock, &curChapter,
		&exp, &edu, &goals, &career,
		&timeline, &style, &duration, &difficulty,
		&recTopics, &recBlocks,
		&apprTopics, &apprBlocks, &apprChapters,
		&score, &strong, &weak,
		&activeChat, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	st.CurrentExpert = expert.Expert(curExpert)
	if accountID.Valid {
		st.AccountID = &accountID.Int64
	}
	if activeChat.Valid {
		st.ActiveChatID = &activeChat.Int64
	}
	if score.Valid {
		v := int(score.Int64)
		st.AssessmentScore = &v
	}

	st.ProgrammingExperience = exp.String
	st.EducationBackground = edu.String
	st.LearningGoals = goals.String
	st.CareerGoals = career.String
	st.Timeline = timeline.String
	st.LearningStyle = style.String
	st.LessonDuration = duration.String
	st.PreferredDifficulty = difficulty.String

	for _, c := range []struct {
		src sql.NullString
		dst any
	}{
		{curTopic, &st.CurrentTopic},
		{curBlock, &st.CurrentBlock},
		{curChapter, &st.CurrentChapter},
		{recTopics, &st.RecommendedTopics},
		{recBlocks, &st.RecommendedBlocks},
		{apprTopics, &st.ApprovedTopics},
		{apprBlocks, &st.ApprovedBlocks},
		{apprChapters, &st.ApprovedChapters},
		{strong, &st.StrongAreas},
		{weak, &st.WeakAreas},
	} {
		if !c.src.Valid || c.src.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c.src.String), c.dst); err != nil {
			return nil, fmt.Errorf("decode student %d json column: %w", st.ID, err)
		}
	}
	return &st, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
