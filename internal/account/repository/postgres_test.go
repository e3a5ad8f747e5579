package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	"github.com/AlibekovAA/sessionauth/internal/common/db"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

const testAccountID = "0b6f0d4e-1f4a-4c59-9f53-3d4e8c1a2b7c"

var accountCols = []string{"id", "username", "password_digest", "session_token", "version", "created_at", "updated_at"}

func newTestPgRepository(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	repo := NewPgRepository(mock, logger.NewWithWriter(io.Discard, "test", "error"))
	repo.retry = db.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return repo, mock
}

func accountRow(version int64, token string) *pgxmock.Rows {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(accountCols).
		AddRow(testAccountID, "carol", "$2a$04$digest", token, version, ts, ts)
}

func TestPgRepository_FindByUsername(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE username = \$1`).
					WithArgs("carol").
					WillReturnRows(accountRow(1, "tok-1"))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE username = \$1`).
					WithArgs("carol").
					WillReturnRows(pgxmock.NewRows(accountCols))
			},
			wantErr: ErrAccountNotFound,
		},
		{
			name: "transient failure is retried once",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE username = \$1`).
					WithArgs("carol").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
				mock.ExpectQuery(`FROM users WHERE username = \$1`).
					WithArgs("carol").
					WillReturnRows(accountRow(1, "tok-1"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPgRepository(t)
			tt.setupMock(mock)

			got, err := repo.FindByUsername(context.Background(), "carol")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.ID(testAccountID), got.ID)
				assert.Equal(t, "carol", got.Username)
				assert.Equal(t, "tok-1", got.SessionToken)
				assert.Equal(t, int64(1), got.Version)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPgRepository_FindByUsername_StorageErrorPropagates(t *testing.T) {
	repo, mock := newTestPgRepository(t)
	mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("carol").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.FindByUsername(context.Background(), "carol")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_FindByID_InvalidIDSkipsQuery(t *testing.T) {
	repo, mock := newTestPgRepository(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")

	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_FindBySessionToken(t *testing.T) {
	repo, mock := newTestPgRepository(t)
	mock.ExpectQuery(`FROM users WHERE session_token = \$1`).
		WithArgs("tok-1").
		WillReturnRows(accountRow(3, "tok-1"))

	got, err := repo.FindBySessionToken(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, domain.ID(testAccountID), got.ID)
	assert.Equal(t, int64(3), got.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_Insert(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "created",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("carol", "$2a$04$digest", "tok-1").
					WillReturnRows(accountRow(1, "tok-1"))
			},
		},
		{
			name: "username conflict",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("carol", "$2a$04$digest", "tok-1").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: usernameConstraint})
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name: "session token conflict",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("carol", "$2a$04$digest", "tok-1").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: sessionTokenConstraint})
			},
			wantErr: ErrSessionTokenTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPgRepository(t)
			tt.setupMock(mock)

			got, err := repo.Insert(context.Background(), domain.Account{
				Username:       "carol",
				PasswordDigest: "$2a$04$digest",
				SessionToken:   "tok-1",
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConflict)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.ID(testAccountID), got.ID)
				assert.False(t, got.CreatedAt.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPgRepository_Update(t *testing.T) {
	input := domain.Account{
		ID:             testAccountID,
		Username:       "carol",
		PasswordDigest: "$2a$04$digest",
		SessionToken:   "tok-2",
		Version:        1,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "updated",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(testAccountID, "carol", "$2a$04$digest", "tok-2", int64(1)).
					WillReturnRows(accountRow(2, "tok-2"))
			},
		},
		{
			name: "stale version",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(testAccountID, "carol", "$2a$04$digest", "tok-2", int64(1)).
					WillReturnRows(pgxmock.NewRows(accountCols))
				mock.ExpectQuery(`FROM users WHERE id = \$1`).
					WithArgs(testAccountID).
					WillReturnRows(accountRow(5, "tok-9"))
			},
			wantErr: ErrStaleAccount,
		},
		{
			name: "account gone",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(testAccountID, "carol", "$2a$04$digest", "tok-2", int64(1)).
					WillReturnRows(pgxmock.NewRows(accountCols))
				mock.ExpectQuery(`FROM users WHERE id = \$1`).
					WithArgs(testAccountID).
					WillReturnRows(pgxmock.NewRows(accountCols))
			},
			wantErr: ErrAccountNotFound,
		},
		{
			name: "token collision",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(testAccountID, "carol", "$2a$04$digest", "tok-2", int64(1)).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: sessionTokenConstraint})
			},
			wantErr: ErrSessionTokenTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestPgRepository(t)
			tt.setupMock(mock)

			got, err := repo.Update(context.Background(), input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(2), got.Version)
				assert.Equal(t, "tok-2", got.SessionToken)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
