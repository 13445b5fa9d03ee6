package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"labelscan/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	day := flag.String("day", time.Now().UTC().Format("2006-01-02"), "day to report (YYYY-MM-DD, UTC)")
	list := flag.Bool("list", false, "list matching scans")
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	report.RunReport(report.MustDBFromEnv(), *username, *day, *list)
}
