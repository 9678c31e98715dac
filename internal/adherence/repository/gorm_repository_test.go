package repository

import (
	"context"
	"testing"
	"time"

	"medbs-backend/internal/adherence/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormRepo(t *testing.T) (OccurrenceRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	return NewGormOccurrenceRepository(db), mock
}

var occurrenceColumns = []string{
	"id", "medicine_id", "user_id", "date", "scheduled_time", "taken", "taken_at",
	"snoozed", "snooze_until", "alert_sent", "created_at", "updated_at",
}

func TestGormRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo, mock := newGormRepo(t)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "dose_occurrences" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "dose_occurrences" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	occ := &domain.DoseOccurrence{MedicineID: "m1", UserID: "u1", Date: day, ScheduledTime: slot("08:00")}
	created, err := repo.CreateIfAbsent(ctx, occ)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, occ.ID)

	created, err = repo.CreateIfAbsent(ctx, &domain.DoseOccurrence{MedicineID: "m1", UserID: "u1", Date: day, ScheduledTime: slot("08:00")})
	require.NoError(t, err)
	assert.False(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_CreateDuplicateSlot(t *testing.T) {
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "dose_occurrences"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &domain.DoseOccurrence{MedicineID: "m1", UserID: "u1", Date: time.Now(), ScheduledTime: slot("08:00")})
	assert.ErrorIs(t, err, domain.ErrOccurrenceExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_FindForSlotNotFound(t *testing.T) {
	repo, mock := newGormRepo(t)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "dose_occurrences" WHERE .*medicine_id = \$1 AND scheduled_time = \$2 AND date >= \$3 AND date < \$4`).
		WillReturnRows(sqlmock.NewRows(occurrenceColumns))

	occ, err := repo.FindForSlot(context.Background(), "m1", day, "08:00")
	require.NoError(t, err)
	assert.Nil(t, occ)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_Acknowledge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 8, 20, 0, 0, time.UTC)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("writes both halves in one owner-scoped statement", func(t *testing.T) {
		repo, mock := newGormRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE "dose_occurrences" SET "snooze_until"=\$1,"snoozed"=\$2,"taken"=\$3,"taken_at"=\$4,"updated_at"=\$5 WHERE .*id = \$6 AND user_id = \$7.* RETURNING \*`).
			WithArgs(nil, false, true, sqlmock.AnyArg(), sqlmock.AnyArg(), "occ-1", "u1").
			WillReturnRows(sqlmock.NewRows(occurrenceColumns).
				AddRow("occ-1", "m1", "u1", day, "08:00", true, now, false, nil, false, day, now))
		mock.ExpectCommit()

		taken, snoozed := true, false
		occ, err := repo.Acknowledge(ctx, "occ-1", "u1", domain.Acknowledgement{Taken: &taken, TakenAt: &now, Snoozed: &snoozed})
		require.NoError(t, err)
		require.NotNil(t, occ)
		assert.Equal(t, "occ-1", occ.ID)
		assert.True(t, occ.Taken)
		assert.False(t, occ.Snoozed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other owner matches no row", func(t *testing.T) {
		repo, mock := newGormRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE "dose_occurrences" SET "taken"=\$1,"taken_at"=\$2,"updated_at"=\$3 WHERE .*id = \$4 AND user_id = \$5.* RETURNING \*`).
			WithArgs(true, sqlmock.AnyArg(), sqlmock.AnyArg(), "occ-1", "intruder").
			WillReturnRows(sqlmock.NewRows(occurrenceColumns))
		mock.ExpectCommit()

		taken := true
		occ, err := repo.Acknowledge(ctx, "occ-1", "intruder", domain.Acknowledgement{Taken: &taken, TakenAt: &now})
		require.NoError(t, err)
		assert.Nil(t, occ)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRepository_MarkAlertSent(t *testing.T) {
	const guard = `UPDATE "dose_occurrences" SET "alert_sent"=\$1,"updated_at"=\$2 WHERE .*id = \$3 AND alert_sent = \$4 AND taken = \$5 AND snoozed = \$6`
	ctx := context.Background()
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(guard).
		WithArgs(true, sqlmock.AnyArg(), "occ-1", false, false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(guard).
		WithArgs(true, sqlmock.AnyArg(), "occ-1", false, false, false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	first, err := repo.MarkAlertSent(ctx, "occ-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkAlertSent(ctx, "occ-1")
	require.NoError(t, err)
	assert.False(t, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_ConfirmPending(t *testing.T) {
	repo, mock := newGormRepo(t)
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	takenAt := start.Add(14 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "dose_occurrences" SET "taken"=\$1,"taken_at"=\$2,"updated_at"=\$3 WHERE .*user_id = \$4 AND date >= \$5 AND date < \$6 AND taken = \$7 AND snoozed = \$8`).
		WithArgs(true, takenAt, sqlmock.AnyArg(), "u1", start, end, false, false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	count, err := repo.ConfirmPending(context.Background(), "u1", start, end, takenAt)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_FindMissed(t *testing.T) {
	repo, mock := newGormRepo(t)
	since := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	before := since.Add(8 * time.Hour)

	mock.ExpectQuery(`SELECT \* FROM "dose_occurrences" WHERE .*taken = \$1 AND snoozed = \$2 AND alert_sent = \$3 AND date >= \$4 AND created_at <= \$5.* ORDER BY created_at ASC`).
		WithArgs(false, false, false, since, before).
		WillReturnRows(sqlmock.NewRows(occurrenceColumns).
			AddRow("occ-1", "m1", "u1", since, "07:00", false, nil, false, nil, false, since.Add(7*time.Hour), since.Add(7*time.Hour)))

	missed, err := repo.FindMissed(context.Background(), since, before)
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, "07:00", missed[0].Slot())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_ReleaseExpiredSnoozes(t *testing.T) {
	repo, mock := newGormRepo(t)
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "dose_occurrences" SET "snoozed"=\$1,"updated_at"=\$2 WHERE .*snoozed = \$3 AND snooze_until IS NOT NULL AND snooze_until <= \$4`).
		WithArgs(false, sqlmock.AnyArg(), true, now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	released, err := repo.ReleaseExpiredSnoozes(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}
