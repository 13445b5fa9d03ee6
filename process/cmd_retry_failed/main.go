package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"labelscan/pkg/scanner"

	_ "github.com/lib/pq"
)

// retrySQL picks scans that produced nothing: failed, or every field absent.
const retrySQL = `SELECT s.id, s.file_name, s.store_path
	FROM scans s JOIN users u ON u.id = s.user_id
	WHERE u.username = $1 AND s.label_record_id IS NULL AND (s.failed OR s.missing_count >= $2)
	ORDER BY s.id`

const updateSQL = `UPDATE scans SET raw_text=$1, stock_code=$2, sales_order=$3, po=$4, qty=$5, weight=$6,
	missing_count=$7, failed=$8, failed_reason=$9, updated_at=now() WHERE id=$10`

func main() {
	user := flag.String("user", "admin", "username whose failed scans are retried")
	dir := flag.String("dir", "public/labels", "fallback directory when store_path is empty")
	minMissing := flag.Int("min-missing", 5, "retry scans missing at least this many fields")
	dry := flag.Bool("dry-run", false, "print results without updating")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(retrySQL, *user, *minMissing)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	type target struct {
		id          int64
		fname, path string
	}
	var targets []target
	for rows.Next() {
		var t target
		var store sql.NullString
		if err := rows.Scan(&t.id, &t.fname, &store); err != nil {
			log.Printf("scan: %v", err)
			continue
		}
		t.path = sourcePath(*dir, t.fname, store.String)
		targets = append(targets, t)
	}
	rows.Close()

	sc := scanner.FromEnv()
	for _, t := range targets {
		out, err := sc.ScanFile(context.Background(), t.path, scanner.ModeAggressive)
		if err != nil {
			log.Printf("retry %s: %v", t.path, err)
			continue
		}
		r := out.Result()
		missing := len(r.Missing())
		if missing >= *minMissing {
			log.Printf("still nothing for id=%d file=%s", t.id, t.fname)
			continue
		}
		if *dry {
			fmt.Printf("DRY: id=%d file=%s %s\n", t.id, t.fname, r)
			continue
		}
		if _, err := db.Exec(updateSQL, out.RawText, r.StockCode, r.SalesOrder, r.PO, r.Qty, r.Weight, missing, false, "", t.id); err != nil {
			log.Printf("update id=%d: %v", t.id, err)
			continue
		}
		fmt.Printf("updated id=%d file=%s %s\n", t.id, t.fname, r)
	}
}

// sourcePath finds the image behind a scan: the stored path when it still
// exists, then the stored file name inside dir, then the original name.
func sourcePath(dir, fname, store string) string {
	if store != "" {
		p := filepath.FromSlash(store)
		if fileExists(p) {
			return p
		}
		if p := filepath.Join(dir, filepath.Base(p)); fileExists(p) {
			return p
		}
	}
	return filepath.Join(dir, fname)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
