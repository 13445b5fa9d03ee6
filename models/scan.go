package models

import (
	"time"

	"labelscan/pkg/label"
)

// Scan is one label photo and what OCR made of it. The extracted fields are
// nullable: nil means the parser could not locate the field.
type Scan struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint   `gorm:"index;not null"`
	User        User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FileName    string `gorm:"size:255;not null"`
	StorePath   string `gorm:"column:store_path;size:512"` // public relative path (e.g. public/scans/xxx.jpg)
	ContentType string `gorm:"size:128"`
	RawText     string `gorm:"type:text"`

	StockCode  *string `gorm:"size:64"`
	SalesOrder *string `gorm:"size:32"`
	PO         *string `gorm:"column:po;size:32"`
	Qty        *string `gorm:"size:16"`
	Weight     *string `gorm:"size:16"`
	// MissingCount is how many of the five fields are nil; rescan targets rows above zero.
	MissingCount int `gorm:"default:0;index"`

	// Mark scan as failed (image unreadable or nothing recognized) so an operator can review it.
	Failed        bool   `gorm:"default:false;index"`
	FailedReason  string `gorm:"size:255"`
	LabelRecordID *uint  `gorm:"index"` // set once the result is confirmed
}

// SetResult copies the parser output onto the row and recounts missing fields.
func (s *Scan) SetResult(r label.ScanResult) {
	s.StockCode, s.SalesOrder, s.PO, s.Qty, s.Weight = r.StockCode, r.SalesOrder, r.PO, r.Qty, r.Weight
	s.MissingCount = len(r.Missing())
}

// Result rebuilds the parser output stored on the row.
func (s Scan) Result() label.ScanResult {
	return label.ScanResult{StockCode: s.StockCode, SalesOrder: s.SalesOrder, PO: s.PO, Qty: s.Qty, Weight: s.Weight}
}
