// Package rescan re-parses the stored OCR text of scans with the current
// parser configuration. No image is touched, so it is cheap to run after
// tuning the label Config.
package rescan

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"labelscan/models"
	"labelscan/pkg/label"
)

// Options selects which scans are re-parsed.
type Options struct {
	DryRun bool
	// UserID limits the run to one user when non-zero.
	UserID uint
	// All re-parses every scan, not only those with missing fields.
	All bool
	// Confirmed scans are left alone unless this is set.
	IncludeConfirmed bool
}

// Change is a scan whose parse result differs from the stored one.
type Change struct {
	ScanID uint
	Before label.ScanResult
	After  label.ScanResult
}

func MustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Plan parses each scan's raw text and returns the ones that would change.
func Plan(scans []models.Scan, p *label.Parser) []Change {
	var out []Change
	for _, s := range scans {
		after := p.Parse(s.RawText)
		before := s.Result()
		if after.String() == before.String() {
			continue
		}
		out = append(out, Change{ScanID: s.ID, Before: before, After: after})
	}
	return out
}

// Run loads the selected scans, re-parses them and writes back the changed
// ones. It returns the changes it found (applied unless DryRun).
func Run(gdb *gorm.DB, p *label.Parser, opts Options) ([]Change, error) {
	q := gdb.Model(&models.Scan{}).Where("raw_text <> ''")
	if !opts.All {
		q = q.Where("missing_count > 0")
	}
	if !opts.IncludeConfirmed {
		q = q.Where("label_record_id IS NULL")
	}
	if opts.UserID != 0 {
		q = q.Where("user_id = ?", opts.UserID)
	}
	var scans []models.Scan
	if err := q.Order("id").Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("load scans: %w", err)
	}
	changes := Plan(scans, p)
	log.Printf("rescan checked=%d changed=%d dry=%v", len(scans), len(changes), opts.DryRun)
	if opts.DryRun {
		return changes, nil
	}
	byID := make(map[uint]*models.Scan, len(scans))
	for i := range scans {
		byID[scans[i].ID] = &scans[i]
	}
	for _, ch := range changes {
		s := byID[ch.ScanID]
		s.SetResult(ch.After)
		err := gdb.Model(&models.Scan{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"stock_code":    s.StockCode,
			"sales_order":   s.SalesOrder,
			"po":            s.PO,
			"qty":           s.Qty,
			"weight":        s.Weight,
			"missing_count": s.MissingCount,
		}).Error
		if err != nil {
			log.Printf("failed update scan %d: %v", s.ID, err)
		}
	}
	return changes, nil
}
