package database

import (
	"fmt"

	adherencedomain "medbs-backend/internal/adherence/domain"
	authdomain "medbs-backend/internal/auth/domain"
	medicinedomain "medbs-backend/internal/medicine/domain"
	"medbs-backend/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresConnection opens the database. Duplicate-key errors are
// translated to gorm.ErrDuplicatedKey so repositories can map them.
func NewPostgresConnection(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates tables and the indexes GORM tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.FCMToken{},
		&medicinedomain.Medicine{},
		&adherencedomain.DoseOccurrence{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	stmts := []string{
		// At most one occurrence per (medicine, day, slot). Backstop for the
		// matcher's check-then-insert.
		`create unique index if not exists uq_dose_occurrences_slot
on dose_occurrences(medicine_id, date, scheduled_time)
where scheduled_time is not null;`,
		// Missed-dose sweep.
		`create index if not exists idx_dose_occurrences_missed
on dose_occurrences(date, created_at)
where taken = false and snoozed = false and alert_sent = false;`,
		// Slot lookup for the timing matcher.
		`create index if not exists idx_medicines_timing on medicines using gin (timing);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
