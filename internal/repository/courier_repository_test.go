package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/models"
)

func newCourierMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courierRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "full_name", "office", "route", "profile_type", "company_vehicle", "vehicle_lettering", "notes", "mobile_phone", "document_path", "vehicle_photo_path", "status", "deactivated_on", "created_at", "updated_at"}).
		AddRow("c1", "Ana Pérez", "Girona", "R-1", "Self-employed", "Yes", "Pending", "", "600123123", nil, nil, "Active", nil, now, now)
}

func TestCourierRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM couriers WHERE office = $1 AND status = $2 ORDER BY full_name ASC")).
		WithArgs(models.Office("Girona"), models.StatusActive).
		WillReturnRows(courierRows())

	couriers, err := repo.ListActive(context.Background(), models.RosterFilter{Office: "Girona"})
	require.NoError(t, err)
	require.Len(t, couriers, 1)
	assert.Equal(t, "Ana Pérez", couriers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryListActiveWithSearch(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`AND full_name ILIKE $3 ESCAPE '\' ORDER BY full_name ASC`)).
		WithArgs(models.Office("Girona"), models.StatusActive, "%ana%").
		WillReturnRows(courierRows())

	couriers, err := repo.ListActive(context.Background(), models.RosterFilter{Office: "Girona", Search: "ana"})
	require.NoError(t, err)
	assert.Len(t, couriers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryListActiveSearchEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	// "%" and "_" in the search term must match literally.
	mock.ExpectQuery(regexp.QuoteMeta(`AND full_name ILIKE $3 ESCAPE '\' ORDER BY full_name ASC`)).
		WithArgs(models.Office("Girona"), models.StatusActive, `%a\%b\_c%`).
		WillReturnRows(courierRows())

	_, err := repo.ListActive(context.Background(), models.RosterFilter{Office: "Girona", Search: "a%b_c"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryListActiveEmpty(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	mock.ExpectQuery("FROM couriers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	couriers, err := repo.ListActive(context.Background(), models.RosterFilter{Office: "Manresa"})
	require.NoError(t, err)
	assert.NotNil(t, couriers)
	assert.Empty(t, couriers)
}

func TestCourierRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	mock.ExpectExec("INSERT INTO couriers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	courier := &models.Courier{FullName: "Ana", Office: "Girona", Status: models.StatusActive}
	require.NoError(t, repo.Create(context.Background(), courier))
	assert.NotEmpty(t, courier.ID)
	assert.False(t, courier.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	route := "R-5"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE couriers SET route = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(route, sqlmock.AnyArg(), "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "c1", CourierUpdate{Route: &route})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	// No fields set means no statement is issued.
	require.NoError(t, repo.Update(context.Background(), "c1", CourierUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	name := "New"
	mock.ExpectExec("UPDATE couriers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", CourierUpdate{FullName: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourierRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	on := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE couriers SET status = $2, deactivated_on = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("c1", models.StatusInactive, on, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "c1", on))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositorySetAttachmentSlots(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE couriers SET document_path = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("c1", "c1_contract.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE couriers SET vehicle_photo_path = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("c1", "vehicle_c1_van.jpg", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetAttachment(context.Background(), "c1", models.SlotDocument, "c1_contract.pdf"))
	require.NoError(t, repo.SetAttachment(context.Background(), "c1", models.SlotVehiclePhoto, "vehicle_c1_van.jpg"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourierRepositoryCountActiveByOffice(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	rows := sqlmock.NewRows([]string{"office", "n"}).
		AddRow("Girona", 3).
		AddRow("Sabadell", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT office, COUNT(*) AS n FROM couriers WHERE status = $1 GROUP BY office")).
		WithArgs(models.StatusActive).
		WillReturnRows(rows)

	counts, err := repo.CountActiveByOffice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Girona": 3, "Sabadell": 1}, counts)
}

func TestCourierRepositoryListInactive(t *testing.T) {
	db, mock, cleanup := newCourierMock(t)
	defer cleanup()
	repo := NewCourierRepository(db)

	on := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "full_name", "office", "deactivated_on"}).
		AddRow("c9", "Jordi Font", "Manresa", on)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, office, deactivated_on FROM couriers WHERE status = $1")).
		WithArgs(models.StatusInactive).
		WillReturnRows(rows)

	records, err := repo.ListInactive(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].DeactivatedOn)
	assert.True(t, records[0].DeactivatedOn.Equal(on))
}
