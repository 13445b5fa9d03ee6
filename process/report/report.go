package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"labelscan/models"
	"labelscan/pkg/label"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

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

// Summary is one user's activity for a day.
type Summary struct {
	Scans     int
	Failed    int
	Confirmed int
	// Missing counts, per field name, the scans where the parser found nothing.
	Missing map[string]int
}

// Summarize aggregates scans.
func Summarize(scans []models.Scan) Summary {
	s := Summary{Missing: map[string]int{}}
	for _, k := range label.Fields {
		s.Missing[k.String()] = 0
	}
	for _, sc := range scans {
		s.Scans++
		if sc.Failed {
			s.Failed++
		}
		if sc.LabelRecordID != nil {
			s.Confirmed++
		}
		for _, name := range sc.Result().Missing() {
			s.Missing[name]++
		}
	}
	return s
}

// Print writes the summary in the report's text layout.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "  scans=%d failed=%d confirmed=%d\n", s.Scans, s.Failed, s.Confirmed)
	for _, k := range label.Fields {
		fmt.Fprintf(w, "  missing %-11s %d\n", k.String(), s.Missing[k.String()])
	}
}

// DayBounds returns [start, end) of day (YYYY-MM-DD) in UTC.
func DayBounds(day string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day format, expected YYYY-MM-DD: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1), nil
}

// RunReport prints a day-bounded report for username and optionally lists
// the scans it covers.
func RunReport(gdb *gorm.DB, username, day string, list bool) {
	var user models.User
	if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	start, end, err := DayBounds(day)
	if err != nil {
		log.Fatal(err)
	}
	var scans []models.Scan
	if err := gdb.Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, start, end).Order("id").Find(&scans).Error; err != nil {
		log.Fatalf("query failed: %v", err)
	}

	fmt.Printf("Report for user=%s day=%s (UTC):\n", user.Username, day)
	Summarize(scans).Print(os.Stdout)

	if list {
		for _, s := range scans {
			fmt.Printf("%d|%s|%s|failed=%v|%s\n", s.ID, s.FileName, s.Result(), s.Failed, s.CreatedAt.Format(time.RFC3339))
		}
	}
}
