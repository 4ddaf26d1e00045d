package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/pkg/secret"
)

const testPassphrase = "correct-horse-battery-staple"

func TestMerchantFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewMerchantRepository(sqlxDB, testPassphrase)

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"merchant_id", "name", "valid_staff", "supervisor", "created", "processor_secret"}).
			AddRow(uint32(127), "Acme Storefront", pq.Int64Array{55, 56}, uint32(55), time.Now(), sql.NullString{})

		mock.ExpectQuery("SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret FROM merchant_profile").
			WithArgs(uint32(127)).
			WillReturnRows(rows)

		profile, err := repo.Fetch(context.Background(), 127)
		require.NoError(t, err)
		assert.Equal(t, uint32(127), profile.MerchantID)
		assert.Equal(t, uint32(55), profile.Supervisor)
		_, ok := profile.ValidStaff[55]
		assert.True(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret FROM merchant_profile").
			WithArgs(uint32(999)).
			WillReturnError(sqlmock.ErrCancelled)

		_, err := repo.Fetch(context.Background(), 999)
		assert.Error(t, err)
	})
}

func TestMerchantFetchSecret(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewMerchantRepository(sqlxDB, testPassphrase)

	t.Run("decrypts stored secret", func(t *testing.T) {
		ciphertext, err := secret.Encrypt(testPassphrase, "sk_live_abc123")
		require.NoError(t, err)

		rows := sqlmock.NewRows([]string{"merchant_id", "name", "valid_staff", "supervisor", "created", "processor_secret"}).
			AddRow(uint32(127), "Acme Storefront", pq.Int64Array{55}, uint32(55), time.Now(), sql.NullString{String: ciphertext, Valid: true})

		mock.ExpectQuery("SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret FROM merchant_profile").
			WithArgs(uint32(127)).
			WillReturnRows(rows)

		got, err := repo.FetchSecret(context.Background(), 127)
		require.NoError(t, err)
		assert.Equal(t, "sk_live_abc123", got)
	})

	t.Run("no secret on file", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"merchant_id", "name", "valid_staff", "supervisor", "created", "processor_secret"}).
			AddRow(uint32(127), "Acme Storefront", pq.Int64Array{55}, uint32(55), time.Now(), sql.NullString{})

		mock.ExpectQuery("SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret FROM merchant_profile").
			WithArgs(uint32(127)).
			WillReturnRows(rows)

		_, err := repo.FetchSecret(context.Background(), 127)
		assert.Error(t, err)
	})
}
