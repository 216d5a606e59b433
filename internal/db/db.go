package db

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventgate/gatekeeper/internal/models"
)

var conn *gorm.DB

func Init() error {
	var err error
	conn, err = gorm.Open(sqlite.Open("gatekeeper.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	// AutoMigrate core tables

	if err := conn.AutoMigrate(
		&models.Event{},
		&models.Guest{},
		&models.ShareLink{},
		&models.CheckIn{},
	); err != nil {
		log.Fatalf("auto-migrate failed: %v", err)
	}

	// Partial unique indexes that GORM doesn't auto-create from struct tags.
	// These are the idempotency keys: at most one valid check-in per
	// (event, guest), and one per (share link, slot).
	conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_checkin_event_guest
	           ON check_ins(event_id, guest_id)
	           WHERE status = 'valid' AND guest_id IS NOT NULL`)
	conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_checkin_link_slot
	           ON check_ins(share_link_id, slot)
	           WHERE status = 'valid' AND share_link_id IS NOT NULL`)

	log.Println("database ready (sqlite)")
	return nil
}

func Conn() *gorm.DB {
	return conn
}
