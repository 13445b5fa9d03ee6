package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"labelscan/models"
	"labelscan/pkg/scanner"
)

// Global DB handle for helper funcs
var db *gorm.DB

// global flags (parsed in main)
var (
	verbose  bool
	autoCrop bool
)

var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// preloadState caches the user's existing scans by file name so workers skip
// files that were already read successfully.
type preloadState struct {
	scansByFile map[string]*models.Scan
	mu          sync.RWMutex
}

func newPreloadState() *preloadState {
	return &preloadState{scansByFile: make(map[string]*models.Scan, 1024)}
}

func (ps *preloadState) getScan(name string) (*models.Scan, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	s, ok := ps.scansByFile[name]
	return s, ok
}

func (ps *preloadState) putScan(s *models.Scan) {
	ps.mu.Lock()
	ps.scansByFile[s.FileName] = s
	ps.mu.Unlock()
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of label photos, runs OCR + the label parser and
// stores one Scan row per file; optional watch mode.
func main() {
	dirFlag := flag.String("dir", "public/labels", "directory to scan for label images")
	userName := flag.String("user", "admin", "username that owns the created scans")
	dryRun := flag.Bool("dry-run", false, "Skip all DB queries and writes; OCR each file and print the parsed fields")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	inspectFKs := flag.Bool("inspect-fks", false, "Print foreign key constraints of the label tables and exit")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.BoolVar(&autoCrop, "auto-crop", false, "Crop each photo to the bright label region before OCR")
	flag.Parse()

	if *inspectFKs {
		if err := RunInspectFKs(os.Getenv("DB_DSN"), "scans", "label_records", "users", "refresh_tokens"); err != nil {
			log.Fatalf("inspect failed: %v", err)
		}
		return
	}

	sc := scanner.FromEnv()
	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		files := listImageFiles(*dirFlag)
		log.Printf("Found %d candidate files", len(files))
		for _, f := range files {
			out, err := sc.ScanFile(context.Background(), filepath.Join(*dirFlag, f), scanMode())
			if err != nil {
				log.Printf("OCR fail %s: %v", f, err)
				continue
			}
			log.Printf("OCR %s result=%s missing=%v", f, out.Result(), out.Result().Missing())
		}
		return
	}

	db = mustInitDBFromEnv()
	owner := resolveUser(*userName)
	ps := preloadAll(owner)
	log.Printf("Preloaded: scans=%d", len(ps.scansByFile))

	p := &processor{dir: *dirFlag, owner: owner, ps: ps, scanner: sc, store: gormStore{db}}
	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(p, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(p, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func scanMode() scanner.Mode {
	if autoCrop {
		return scanner.ModeAutoCrop
	}
	return scanner.ModeEnhance
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadAll fetches the owner's existing scans to minimize per-file queries.
func preloadAll(owner models.User) *preloadState {
	ps := newPreloadState()
	var scans []models.Scan
	if err := db.Where("user_id = ?", owner.ID).Order("id").Find(&scans).Error; err == nil {
		for i := range scans {
			ps.putScan(&scans[i])
		}
	}
	return ps
}

func resolveUser(name string) models.User {
	var u models.User
	if err := db.Where("username = ?", name).First(&u).Error; err != nil {
		log.Fatalf("user %q not found: %v", name, err)
	}
	return u
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(p *processor, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(p.dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", p.dir)

	fileCh := make(chan string, 256)
	go debounce(w.Events, w.Errors, fileCh, 300*time.Millisecond)
	runWorkerPool(p, nil, workers, fileCh)
	return nil
}

// debounce forwards created or written image files once they have been quiet
// for settle. It closes out when events closes.
func debounce(events <-chan fsnotify.Event, errs <-chan error, out chan<- string, settle time.Duration) {
	defer close(out)
	pending := map[string]time.Time{}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !isSupportedExt(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > settle {
					out <- name
					delete(pending, name)
				}
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func isSupportedExt(name string) bool {
	// ignore OCR-generated temp files to avoid recursive processing
	if strings.Contains(name, ".ocr.") {
		return false
	}
	_, ok := extMime[strings.ToLower(filepath.Ext(name))]
	return ok
}

func mimeFromExt(name string) string {
	return extMime[strings.ToLower(filepath.Ext(name))]
}

// runWorkerPool processes initial and then everything arriving on extra until
// those channels close.
func runWorkerPool(p *processor, initial []string, workers int, extra ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				p.processSingleFile(name)
			}
		}()
	}
	var feed sync.WaitGroup
	for _, ch := range extra {
		feed.Add(1)
		go func(c <-chan string) {
			defer feed.Done()
			for n := range c {
				fileCh <- n
			}
		}(ch)
	}
	for _, f := range initial {
		fileCh <- f
	}
	feed.Wait()
	close(fileCh)
	wg.Wait()
}
