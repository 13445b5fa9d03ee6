package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"labelscan/models"
	"labelscan/pkg/scanner"
)

// scanStore is the slice of persistence the batch processor needs.
type scanStore interface {
	CreateScan(s *models.Scan) error
	SaveScan(s *models.Scan) error
}

type gormStore struct{ db *gorm.DB }

func (g gormStore) CreateScan(s *models.Scan) error { return g.db.Create(s).Error }
func (g gormStore) SaveScan(s *models.Scan) error   { return g.db.Save(s).Error }

type processor struct {
	dir          string
	processedDir string
	owner        models.User
	ps           *preloadState
	scanner      *scanner.Scanner
	store        scanStore
}

// processSingleFile reads one label photo and records it. Files with a
// successful scan are skipped; failed ones are retried and their row updated.
func (p *processor) processSingleFile(name string) {
	existing, seen := p.ps.getScan(name)
	if seen && !existing.Failed {
		logV("SKIP already scanned %s", name)
		return
	}
	filePath := filepath.Join(p.dir, name)
	scan := models.Scan{
		UserID:      p.owner.ID,
		FileName:    name,
		ContentType: mimeFromExt(name),
	}
	if seen {
		scan = *existing
		scan.Failed, scan.FailedReason = false, ""
	}

	out, err := p.scanner.ScanFile(context.Background(), filePath, scanMode())
	switch {
	case err != nil:
		scan.Failed = true
		scan.FailedReason = truncate(err.Error(), 255)
		logV("OCR fail %s: %v", name, err)
	case strings.TrimSpace(out.RawText) == "":
		scan.Failed = true
		scan.FailedReason = "no text recognized"
	}
	scan.RawText = out.RawText
	scan.SetResult(out.Result())
	// failed files stay where they are for a retry
	scan.StorePath = filepath.ToSlash(filepath.Join(p.processedPath(), name))
	if scan.Failed {
		scan.StorePath = filepath.ToSlash(filePath)
	}

	if seen {
		err = p.store.SaveScan(&scan)
	} else {
		err = p.store.CreateScan(&scan)
	}
	if err != nil {
		log.Printf("ERROR store scan %s: %v", name, err)
		return
	}
	p.ps.putScan(&scan)
	if scan.Failed {
		log.Printf("FAILED scan id=%d file=%s reason=%s", scan.ID, name, scan.FailedReason)
		return
	}
	log.Printf("SCAN id=%d file=%s %s missing=%d", scan.ID, name, out.Result(), scan.MissingCount)
	// move out of the watched directory so every image is processed once
	if err := moveToProcessed(filePath, p.processedPath(), name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	} else {
		logV("moved processed %s to %s", name, p.processedPath())
	}
}

func (p *processor) processedPath() string {
	if p.processedDir != "" {
		return p.processedDir
	}
	return filepath.Join("public", "processed")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
