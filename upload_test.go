package main

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labelscan/pkg/scanner"

	"github.com/disintegration/imaging"
)

func TestUploadPathUnderBase(t *testing.T) {
	base := t.TempDir()
	t.Setenv("UPLOAD_BASE", base)
	p := uploadPath(3, "../../etc/label.jpg")
	if filepath.Dir(p) != filepath.Join(base, "scans") {
		t.Fatalf("expected file under %s/scans got %s", base, p)
	}
	name := filepath.Base(p)
	if !strings.HasPrefix(name, "3_") || !strings.HasSuffix(name, "_label.jpg") {
		t.Fatalf("unexpected upload name %s", name)
	}
	if uploadPath(3, "label.jpg") == uploadPath(3, "label.jpg") {
		t.Fatalf("expected unique names per upload")
	}
}

func TestScanUploadKeepsScannedFile(t *testing.T) {
	t.Setenv("UPLOAD_BASE", t.TempDir())
	p := uploadPath(1, "a.png")
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := imaging.Save(imaging.New(40, 30, color.White), p); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	out, err := scanUpload(context.Background(), stubScanner("Qty: 12"), p, scanner.ModeEnhance)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.Result().Qty == nil || *out.Result().Qty != "12" {
		t.Fatalf("unexpected result %+v", out.Result())
	}
	// the handler stores this path for the batch tools
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected upload kept at its stored path: %v", err)
	}
}

func TestScanUploadRemovesUndecodable(t *testing.T) {
	t.Setenv("UPLOAD_BASE", t.TempDir())
	p := uploadPath(1, "notes.txt")
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("SOME CONTENT"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := scanUpload(context.Background(), stubScanner("Qty: 12"), p, scanner.ModeEnhance)
	if err == nil || !strings.Contains(err.Error(), "unsupported image") {
		t.Fatalf("expected unsupported image error got %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected failed upload removed, stat err=%v", err)
	}
}
