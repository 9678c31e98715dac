package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (MedicineRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return NewMedicineRepository(db), mock
}

func TestListActiveForSlot(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "medicines" WHERE .*active = \$1 AND \$2 = ANY\(timing\) AND start_date <= \$3.*end_date IS NULL OR end_date >= \$4`).
		WithArgs(true, "08:00", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "dosage", "timing", "start_date", "active"}).
			AddRow("m1", "u1", "Metformin", "500mg", "{08:00,20:00}", now.AddDate(0, 0, -3), true))

	meds, err := repo.ListActiveForSlot(context.Background(), "08:00", now)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Metformin", meds[0].Name)
	assert.True(t, meds[0].DueAt("08:00", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDForUser_NotOwned(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "medicines" WHERE .*id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	med, err := repo.FindByIDForUser(context.Background(), "m1", "intruder")
	require.NoError(t, err)
	assert.Nil(t, med)
	assert.NoError(t, mock.ExpectationsWereMet())
}
