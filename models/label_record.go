package models

import "time"

// LabelRecord is a scan result after a person confirmed (and possibly edited) it.
type LabelRecord struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint      `gorm:"index;not null"`
	ScanID      uint      `gorm:"uniqueIndex;not null"`
	StockCode   string    `gorm:"size:64"`
	SalesOrder  string    `gorm:"size:32"`
	PO          string    `gorm:"column:po;size:32"`
	Qty         string    `gorm:"size:16"`
	Weight      string    `gorm:"size:16"`
	ConfirmedAt time.Time `gorm:"not null"`
}
