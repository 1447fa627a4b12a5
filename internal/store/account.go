package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type accountRepo struct {
	s *Store
}

func (r *accountRepo) GetByLogin(ctx context.Context, login string) (*Account, error) {
	return getAccountByLogin(ctx, r.s, r.s.db, login)
}

func getAccountByLogin(ctx context.Context, s *Store, q querier, login string) (*Account, error) {
	var a Account
	err := q.QueryRowContext(ctx,
		s.rebind(`SELECT id, login, password_hash, created_at, updated_at FROM accounts WHERE login = ?`), login,
	).Scan(&a.ID, &a.Login, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("account", login)
	}
	if err != nil {
		return nil, persistErr("get account", err)
	}
	return &a, nil
}

func (r *accountRepo) Register(ctx context.Context, login, passwordHash string) (*Account, *Student, error) {
	var studentID int64
	err := r.s.inTx(ctx, "register", func(tx *sql.Tx) error {
		_, err := getAccountByLogin(ctx, r.s, tx, login)
		switch {
		case err == nil:
			return fmt.Errorf("login %q: %w", login, ErrConflict)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		now := time.Now().UTC()
		accountID, err := r.s.insertID(ctx, tx, "create account",
			`INSERT INTO accounts (login, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			login, passwordHash, now, now)
		if err != nil {
			return err
		}

		studentID, err = createStudent(ctx, r.s, tx, &accountID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	acc, err := r.GetByLogin(ctx, login)
	if err != nil {
		return nil, nil, err
	}
	st, err := r.s.Students().Get(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	return acc, st, nil
}
