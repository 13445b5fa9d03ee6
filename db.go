package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"labelscan/models"

	"github.com/avast/retry-go/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB


func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = openWithRetry(dsn)
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// DB_AUTO_MIGRATE (default true) controls schema migrations; permission errors are logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// roles first so the users FK can be applied
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// one model at a time so a failure on one doesn't block the others
		for _, m := range []struct {
			table string
			model interface{}
		}{
			{"users", &models.User{}},
			{"scans", &models.Scan{}},
			{"label_records", &models.LabelRecord{}},
			{"refresh_tokens", &models.RefreshToken{}},
		} {
			if err := db.AutoMigrate(m.model); err != nil {
				log.Printf("migration warning (%s): %v", m.table, err)
			}
		}
		if err := ensureScanLabelFK(); err != nil {
			log.Printf("warning: ensuring scans->label_records FK failed: %v", err)
		}
	}
	seedDB()
}

// ensureScanLabelFK adds the scans.label_record_id FK if it is missing. gorm
// does not create it because Scan carries only the id.
func ensureScanLabelFK() error {
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'scans' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%label_record_id%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N > 0 {
		return nil
	}
	return db.Exec(`ALTER TABLE scans
		ADD CONSTRAINT fk_scans_label_records
		FOREIGN KEY (label_record_id) REFERENCES label_records(id)
		ON UPDATE CASCADE ON DELETE SET NULL`).Error
}

func seedRoles() {
	for _, r := range models.DefaultRoles() {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", models.RoleAdministrator).First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		pw := os.Getenv("ADMIN_PASSWORD")
		if pw == "" {
			pw = "admin123"
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin")
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}

// openWithRetry waits for postgres to accept connections, which matters when
// the service and the database start together.
func openWithRetry(dsn string) (*gorm.DB, error) {
	var gdb *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
			return err
		},
		retry.Attempts(uint(envIntDefault("DB_CONNECT_ATTEMPTS", 5))),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("db connect attempt=%d err=%v", n+1, err)
		}),
	)
	return gdb, err
}

func envIntDefault(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
