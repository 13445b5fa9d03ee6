package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"labelscan/models"
	"labelscan/pkg/label"
	"labelscan/pkg/scanner"
	"labelscan/process/rescan"
)

func main() {
	dry := flag.Bool("dry-run", true, "dry-run: don't write to DB")
	user := flag.String("user", "", "only rescan this user's scans")
	all := flag.Bool("all", false, "rescan every scan, not only those with missing fields")
	confirmed := flag.Bool("include-confirmed", false, "also rescan scans that were already confirmed")
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export and retry")
		os.Exit(2)
	}
	gdb := rescan.MustDBFromEnv()
	opts := rescan.Options{DryRun: *dry, All: *all, IncludeConfirmed: *confirmed}
	if *user != "" {
		var u models.User
		if err := gdb.Where("username = ?", *user).First(&u).Error; err != nil {
			log.Fatalf("user %q not found: %v", *user, err)
		}
		opts.UserID = u.ID
	}
	_, cfg := scanner.ConfigFromEnv()
	changes, err := rescan.Run(gdb, label.NewParser(cfg), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
	for _, ch := range changes {
		prefix := "updated"
		if *dry {
			prefix = "DRY: would update"
		}
		fmt.Printf("%s scan id=%d [%s] -> [%s]\n", prefix, ch.ScanID, ch.Before, ch.After)
	}
}
