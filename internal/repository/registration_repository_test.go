package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var registrationRowColumns = []string{
	"id", "child_id", "outing_id", "status", "notes", "signed_at", "signature_name",
	"signature_phone", "health_notes", "signature_image", "signature_ip", "signature_user_agent",
	"created_at", "updated_at",
}

func registrationRows(id, childID, outingID string, status models.RegistrationStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(registrationRowColumns).
		AddRow(id, childID, outingID, string(status), nil, nil, nil, nil, nil, nil, nil, nil, now, now)
}

func TestRegistrationRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(append(append([]string{}, registrationRowColumns...),
		"parent_profile_id", "child_first_name", "child_last_name", "child_level",
		"outing_title", "outing_starts_at", "outing_location", "outing_capacity")).
		AddRow("r1", "c1", "o1", "invited", nil, nil, nil, nil, nil, nil, nil, nil, now, now,
			"p1", "Léa", "Petit", "CE2", "Accrobranche", now, nil, 20)
	mock.ExpectQuery("FROM outing_registration r").
		WithArgs("r1").
		WillReturnRows(rows)

	detail, err := repo.FindDetailByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "p1", detail.ParentProfileID)
	assert.Equal(t, "Accrobranche", detail.OutingTitle)
	require.NotNil(t, detail.OutingCapacity)
	assert.Equal(t, 20, *detail.OutingCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositorySignCriticalSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM outing WHERE id = $1 FOR UPDATE")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM outing_registration WHERE outing_id = $1 AND signed_at IS NOT NULL")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	signedAt := time.Now()
	mock.ExpectQuery("UPDATE outing_registration").
		WithArgs("r1", "confirmed", sqlmock.AnyArg(), "Claire Dupont", "+33612345678",
			nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(registrationRowColumns).
			AddRow("r1", "c1", "o1", "confirmed", nil, signedAt, "Claire Dupont", "+33612345678", nil, nil, nil, nil, signedAt, signedAt))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		if err := repo.LockOuting(context.Background(), tx, "o1"); err != nil {
			return err
		}
		count, err := repo.CountSigned(context.Background(), tx, "o1")
		if err != nil {
			return err
		}
		assert.Equal(t, 3, count)
		updated, err := repo.UpdateSignature(context.Background(), tx, "r1", models.Signature{
			Name:     "Claire Dupont",
			Phone:    "+33612345678",
			SignedAt: signedAt,
		})
		if err != nil {
			return err
		}
		assert.Equal(t, models.RegistrationConfirmed, updated.Status)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryWithinTxRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := assert.AnError
	err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountSignedByOutingIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT outing_id, COUNT(.+) AS cnt").
		WithArgs("o1", "o2").
		WillReturnRows(sqlmock.NewRows([]string{"outing_id", "cnt"}).AddRow("o1", 4))

	counts, err := repo.CountSignedByOutingIDs(context.Background(), []string{"o1", "o2"})
	require.NoError(t, err)
	assert.Equal(t, 4, counts["o1"])
	_, ok := counts["o2"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Empty input short-circuits without touching the database.
	counts, err = repo.CountSignedByOutingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRegistrationRepositoryCreateInvited(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO outing_registration").
		WithArgs(sqlmock.AnyArg(), "c1", "o1", "invited", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(registrationRows("r1", "c1", "o1", models.RegistrationInvited))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		created, err := repo.CreateInvited(context.Background(), tx, "c1", "o1")
		if err != nil {
			return err
		}
		assert.Equal(t, models.RegistrationInvited, created.Status)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("UPDATE outing_registration SET status").
		WithArgs("r1", "declined", sqlmock.AnyArg()).
		WillReturnRows(registrationRows("r1", "c1", "o1", models.RegistrationDeclined))

	updated, err := repo.UpdateStatus(context.Background(), "r1", models.RegistrationDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationDeclined, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
