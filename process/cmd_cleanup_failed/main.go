package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	user := flag.String("user", "admin", "username whose failed scans are removed")
	days := flag.Int("older-than-days", 7, "only remove scans older than this many days")
	dry := flag.Bool("dry-run", true, "count only, do not delete")
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

	var userID sql.NullInt64
	if err := db.QueryRow(`SELECT id FROM users WHERE username=$1 LIMIT 1`, *user).Scan(&userID); err != nil && err != sql.ErrNoRows {
		log.Fatalf("find user: %v", err)
	}
	if !userID.Valid {
		fmt.Printf("user %s not found; nothing to cleanup\n", *user)
		return
	}
	const where = `user_id=$1 AND failed AND label_record_id IS NULL AND created_at < now() - make_interval(days => $2)`
	if *dry {
		var n int64
		if err := db.QueryRow(`SELECT count(*) FROM scans WHERE `+where, userID.Int64, *days).Scan(&n); err != nil {
			log.Fatalf("count: %v", err)
		}
		fmt.Printf("DRY: would delete %d failed scans\n", n)
		return
	}
	res, err := db.Exec(`DELETE FROM scans WHERE `+where, userID.Int64, *days)
	if err != nil {
		log.Fatalf("delete failed scans: %v", err)
	}
	n, _ := res.RowsAffected()
	fmt.Printf("cleanup done: failed scans deleted=%d\n", n)
}
