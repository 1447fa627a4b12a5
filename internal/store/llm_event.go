package store

import (
	"context"
	"database/sql"
	"errors"
)

type eventRepo struct {
	s *Store
}

const llmEventColumns = `id, occurred_at, student_id, provider, model, purpose,
	input_tokens, output_tokens, latency_ms, success, error_message, request_body, response_body`

func (r *eventRepo) AppendLLMEvent(ctx context.Context, ev LLMEvent) error {
	var student any
	if ev.StudentID != 0 {
		student = ev.StudentID
	}
	_, err := r.s.insertID(ctx, r.s.db, "append llm event",
		`INSERT INTO llm_events (occurred_at, student_id, provider, model, purpose,
			input_tokens, output_tokens, latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp, student, ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ev.Success,
		nullString(ev.ErrorMessage), nullString(ev.RequestBody), nullString(ev.ResponseBody))
	return err
}

// QueryLLMEvents returns events newest first.
func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	query := `SELECT ` + llmEventColumns + ` FROM llm_events`
	var args []any
	if opts.Purpose != "" {
		query += ` WHERE purpose = ?`
		args = append(args, opts.Purpose)
	}
	query += ` ORDER BY id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(query), args...)
	if err != nil {
		return nil, persistErr("query llm events", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		ev, err := scanLLMEvent(rows)
		if err != nil {
			return nil, persistErr("query llm events", err)
		}
		out = append(out, ev)
	}
	return out, persistErr("query llm events", rows.Err())
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	ev, err := scanLLMEvent(r.s.db.QueryRowContext(ctx,
		r.s.rebind(`SELECT `+llmEventColumns+` FROM llm_events WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("llm event", id)
	}
	if err != nil {
		return nil, persistErr("get llm event", err)
	}
	return &ev, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *eventRepo) usage(ctx context.Context, col string) ([]LLMUsage, error) {
	query := `SELECT ` + col + `, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
		CAST(COALESCE(AVG(latency_ms), 0) AS BIGINT)
		FROM llm_events GROUP BY ` + col + ` ORDER BY ` + col
	return queryAll(ctx, r.s, "llm usage by "+col, query, func(row rowScanner) (LLMUsage, error) {
		var u LLMUsage
		err := row.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs)
		return u, err
	})
}

func scanLLMEvent(row rowScanner) (LLMEvent, error) {
	var (
		ev                  LLMEvent
		student             sql.NullInt64
		errMsg, reqB, respB sql.NullString
	)
	err := row.Scan(&ev.ID, &ev.Timestamp, &student, &ev.Provider, &ev.Model, &ev.Purpose,
		&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &ev.Success, &errMsg, &reqB, &respB)
	ev.StudentID = student.Int64
	ev.ErrorMessage, ev.RequestBody, ev.ResponseBody = errMsg.String, reqB.String, respB.String
	return ev, err
}
