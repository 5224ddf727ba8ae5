// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/account"
)

func newTestAccount(t *testing.T) *account.Account {
	t.Helper()
	acct, err := account.NewAccount("bob", "bob@x.com", "$argon2id$hash", "verify-tok")
	require.NoError(t, err)
	return acct
}

func accountRows(acct *account.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "verified",
		"verification_token", "reset_token", "reset_token_redeemed",
		"created_at", "updated_at",
	}).AddRow(
		acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash, acct.Verified,
		acct.VerificationToken, acct.ResetToken, acct.ResetTokenRedeemed,
		acct.CreatedAt, acct.UpdatedAt,
	)
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, acct *account.Account)
		check     func(t *testing.T, err error)
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, acct *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(
						acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash,
						acct.Verified, acct.VerificationToken, acct.ResetToken,
						acct.ResetTokenRedeemed, acct.CreatedAt, acct.UpdatedAt,
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "duplicate email maps to ErrEmailTaken",
			setupMock: func(mock pgxmock.PgxPoolIface, acct *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(
						acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash,
						acct.Verified, acct.VerificationToken, acct.ResetToken,
						acct.ResetTokenRedeemed, acct.CreatedAt, acct.UpdatedAt,
					).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.ErrorIs(t, err, account.ErrEmailTaken)
			},
		},
		{
			name: "other database error is not ErrEmailTaken",
			setupMock: func(mock pgxmock.PgxPoolIface, acct *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(
						acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash,
						acct.Verified, acct.VerificationToken, acct.ResetToken,
						acct.ResetTokenRedeemed, acct.CreatedAt, acct.UpdatedAt,
					).
					WillReturnError(errors.New("connection refused"))
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.NotErrorIs(t, err, account.ErrEmailTaken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			acct := newTestAccount(t)
			tt.setupMock(mock, acct)

			repo := NewAccountRepository(mock)
			tt.check(t, repo.Create(ctx, acct))

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns matching account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		acct := newTestAccount(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE email = \$1`).
			WithArgs(acct.Email).
			WillReturnRows(accountRows(acct))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByEmail(ctx, acct.Email)
		require.NoError(t, err)
		assert.Equal(t, acct.ID, got.ID)
		assert.Equal(t, acct.Email, got.Email)
		assert.Equal(t, acct.VerificationToken, got.VerificationToken)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE email = \$1`).
			WithArgs("nobody@x.com").
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByEmail(ctx, "nobody@x.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestAccountRepository_GetByVerificationToken(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account for pending token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		acct := newTestAccount(t)
		mock.ExpectQuery(`WHERE verification_token = \$1 AND verification_token <> ''`).
			WithArgs(acct.VerificationToken).
			WillReturnRows(accountRows(acct))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByVerificationToken(ctx, acct.VerificationToken)
		require.NoError(t, err)
		assert.Equal(t, acct.ID, got.ID)
	})

	t.Run("unknown token maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`WHERE verification_token = \$1 AND verification_token <> ''`).
			WithArgs("gone").
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByVerificationToken(ctx, "gone")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestAccountRepository_GetByResetToken(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	acct := newTestAccount(t)
	acct.SetResetToken("reset-tok")
	mock.ExpectQuery(`WHERE reset_token = \$1 AND reset_token <> ''`).
		WithArgs("reset-tok").
		WillReturnRows(accountRows(acct))

	repo := NewAccountRepository(mock)
	got, err := repo.GetByResetToken(ctx, "reset-tok")
	require.NoError(t, err)
	assert.Equal(t, "reset-tok", got.ResetToken)
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		acct := newTestAccount(t)
		acct.MarkVerified()
		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(
				acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash,
				acct.Verified, acct.VerificationToken, acct.ResetToken,
				acct.ResetTokenRedeemed, acct.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		require.NoError(t, repo.Update(ctx, acct))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		acct := newTestAccount(t)
		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(
				acct.ID.String(), acct.Username, acct.Email, acct.PasswordHash,
				acct.Verified, acct.VerificationToken, acct.ResetToken,
				acct.ResetTokenRedeemed, acct.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		assert.ErrorIs(t, repo.Update(ctx, acct), account.ErrNotFound)
	})
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE accounts SET password_hash = \$2`).
			WithArgs(id.String(), "$argon2id$new", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		require.NoError(t, repo.UpdatePassword(ctx, id, "$argon2id$new"))
	})

	t.Run("unknown id maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE accounts SET password_hash = \$2`).
			WithArgs(id.String(), "$argon2id$new", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		assert.ErrorIs(t, repo.UpdatePassword(ctx, id, "$argon2id$new"), account.ErrNotFound)
	})
}
