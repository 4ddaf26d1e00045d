package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/pkg/secret"
)

// MerchantRepository persists merchant profiles and their encrypted
// payment-processor secrets (§4.8). passphrase is the deployment's
// merchant-secret master key used to encrypt/decrypt each merchant's
// processor credential at rest.
type MerchantRepository struct {
	db         *sqlx.DB
	passphrase string
}

func NewMerchantRepository(db *sqlx.DB, passphrase string) *MerchantRepository {
	return &MerchantRepository{db: db, passphrase: passphrase}
}

type merchantRow struct {
	MerchantID uint32         `db:"merchant_id"`
	Name       string         `db:"name"`
	ValidStaff pq.Int64Array  `db:"valid_staff"`
	Supervisor uint32         `db:"supervisor"`
	Created    time.Time      `db:"created"`
	Secret     sql.NullString `db:"processor_secret"`
}

func (r *MerchantRepository) Create(ctx context.Context, profile models.MerchantProfile) error {
	if err := profile.Validate(); err != nil {
		return apperr.New(apperr.KindInvalidInput, "MerchantRepository.Create", err.Error())
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchant_profile (merchant_id, name, valid_staff, supervisor, created)
		VALUES ($1, $2, $3, $4, $5)`,
		profile.MerchantID, profile.Name, staffArray(profile.ValidStaff), profile.Supervisor, profile.Created)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "MerchantRepository.Create", err)
	}
	return nil
}

func (r *MerchantRepository) Fetch(ctx context.Context, merchantID uint32) (models.MerchantProfile, error) {
	var row merchantRow
	err := r.db.GetContext(ctx, &row, `
		SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret
		FROM merchant_profile WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return models.MerchantProfile{}, apperr.New(apperr.KindNotFound, "MerchantRepository.Fetch", "")
	}
	return merchantFromRow(row), nil
}

func (r *MerchantRepository) Update(ctx context.Context, profile models.MerchantProfile) error {
	if err := profile.Validate(); err != nil {
		return apperr.New(apperr.KindInvalidInput, "MerchantRepository.Update", err.Error())
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE merchant_profile SET name = $1, valid_staff = $2, supervisor = $3
		WHERE merchant_id = $4`,
		profile.Name, staffArray(profile.ValidStaff), profile.Supervisor, profile.MerchantID)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "MerchantRepository.Update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "MerchantRepository.Update", "")
	}
	return nil
}

// FetchSecret decrypts and returns the merchant's processor API secret.
func (r *MerchantRepository) FetchSecret(ctx context.Context, merchantID uint32) (string, error) {
	var row merchantRow
	err := r.db.GetContext(ctx, &row, `
		SELECT merchant_id, name, valid_staff, supervisor, created, processor_secret
		FROM merchant_profile WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return "", apperr.New(apperr.KindNotFound, "MerchantRepository.FetchSecret", "")
	}
	if !row.Secret.Valid {
		return "", apperr.New(apperr.KindMissingDataStore, "MerchantRepository.FetchSecret", "no processor secret on file")
	}

	plaintext, err := secret.Decrypt(r.passphrase, row.Secret.String)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDataCorruption, "MerchantRepository.FetchSecret", err)
	}
	return plaintext, nil
}

// StoreSecret encrypts plaintext under the deployment passphrase and
// persists it for merchantID. Not part of the MerchantRepository interface
// (only the processor-facing read path, FetchSecret, is) — used by the
// staff onboarding flow that provisions a merchant's processor credential.
func (r *MerchantRepository) StoreSecret(ctx context.Context, merchantID uint32, plaintext string) error {
	encoded, err := secret.Encrypt(r.passphrase, plaintext)
	if err != nil {
		return apperr.Wrap(apperr.KindDataCorruption, "MerchantRepository.StoreSecret", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE merchant_profile SET processor_secret = $1 WHERE merchant_id = $2`,
		encoded, merchantID)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "MerchantRepository.StoreSecret", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "MerchantRepository.StoreSecret", "")
	}
	return nil
}

func merchantFromRow(row merchantRow) models.MerchantProfile {
	staff := make(map[uint32]struct{}, len(row.ValidStaff))
	for _, id := range row.ValidStaff {
		staff[uint32(id)] = struct{}{}
	}
	return models.MerchantProfile{
		MerchantID: row.MerchantID,
		Name:       row.Name,
		ValidStaff: staff,
		Supervisor: row.Supervisor,
		Created:    row.Created,
	}
}

func staffArray(staff map[uint32]struct{}) pq.Int64Array {
	arr := make(pq.Int64Array, 0, len(staff))
	for id := range staff {
		arr = append(arr, int64(id))
	}
	return arr
}
