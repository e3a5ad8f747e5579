package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	"github.com/AlibekovAA/sessionauth/internal/common/db"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

const (
	usernameConstraint     = "users_username_key"
	sessionTokenConstraint = "users_session_token_key"

	accountColumns = `id::text, username, password_digest, session_token, version, created_at, updated_at`
)

// Querier is the subset of *pgxpool.Pool used by PgRepository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool  Querier
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRepository(pool Querier, log *logger.Logger) *PgRepository {
	return &PgRepository{
		pool:  pool,
		log:   log,
		retry: db.DefaultRetryConfig,
	}
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	if uuid.Validate(string(id)) != nil {
		return domain.Account{}, ErrAccountNotFound
	}
	return r.findOne(ctx, "find_account_by_id",
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, string(id))
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	return r.findOne(ctx, "find_account_by_username",
		`SELECT `+accountColumns+` FROM users WHERE username = $1`, username)
}

func (r *PgRepository) FindBySessionToken(ctx context.Context, token string) (domain.Account, error) {
	return r.findOne(ctx, "find_account_by_session_token",
		`SELECT `+accountColumns+` FROM users WHERE session_token = $1`, token)
}

func (r *PgRepository) Insert(ctx context.Context, account domain.Account) (domain.Account, error) {
	start := time.Now()
	created, err := scanAccount(r.pool.QueryRow(
		ctx,
		`INSERT INTO users (username, password_digest, session_token)
		 VALUES ($1, $2, $3)
		 RETURNING `+accountColumns,
		account.Username,
		account.PasswordDigest,
		account.SessionToken,
	))
	db.ObserveQuery("insert_account", start, err)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return domain.Account{}, conflict
		}
		return domain.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	if uuid.Validate(string(account.ID)) != nil {
		return domain.Account{}, ErrAccountNotFound
	}

	start := time.Now()
	updated, err := scanAccount(r.pool.QueryRow(
		ctx,
		`UPDATE users
		 SET username = $2, password_digest = $3, session_token = $4,
		     version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $5
		 RETURNING `+accountColumns,
		string(account.ID),
		account.Username,
		account.PasswordDigest,
		account.SessionToken,
		account.Version,
	))
	db.ObserveQuery("update_account", start, err)
	if err == nil {
		return updated, nil
	}

	if conflict := mapUniqueViolation(err); conflict != nil {
		return domain.Account{}, conflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	// No row matched: either the account is gone or its version moved on.
	if _, findErr := r.FindByID(ctx, account.ID); findErr != nil {
		return domain.Account{}, findErr
	}
	return domain.Account{}, ErrStaleAccount
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg any) (domain.Account, error) {
	var account domain.Account
	err := db.RetryWithBackoff(ctx, r.log, operation, r.retry, func() error {
		start := time.Now()
		var scanErr error
		account, scanErr = scanAccount(r.pool.QueryRow(ctx, query, arg))
		db.ObserveQuery(operation, start, scanErr)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("failed to %s: %w", operation, err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		account domain.Account
		id      string
	)
	err := row.Scan(
		&id,
		&account.Username,
		&account.PasswordDigest,
		&account.SessionToken,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	account.ID = domain.ID(id)
	return account, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return ErrUsernameTaken
	case sessionTokenConstraint:
		return ErrSessionTokenTaken
	default:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
}
