package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"labelscan/pkg/ocr"
	"labelscan/pkg/scanner"

	"github.com/disintegration/imaging"
)

func main() {
	f := flag.String("file", "", "image file to OCR")
	mode := flag.String("mode", "enhance", "preparation: enhance, autocrop or aggressive")
	save := flag.String("save", "", "also write the prepared image to this path")
	text := flag.String("text", "", "skip OCR and parse this text file instead")
	flag.Parse()

	sc := scanner.FromEnv()
	if *text != "" {
		b, err := os.ReadFile(*text)
		if err != nil {
			log.Fatalf("read text: %v", err)
		}
		dump(sc.ScanText(string(b)))
		return
	}
	if *f == "" {
		log.Fatalf("-file required")
	}
	m := map[string]scanner.Mode{"enhance": scanner.ModeEnhance, "autocrop": scanner.ModeAutoCrop, "aggressive": scanner.ModeAggressive}[*mode]
	img, err := ocr.Open(*f)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	if *save != "" {
		prepared, err := scanner.Prepare(img, m)
		if err != nil {
			log.Fatalf("prepare: %v", err)
		}
		if err := imaging.Save(prepared, *save); err != nil {
			log.Fatalf("save prepared: %v", err)
		}
	}
	out, err := sc.ScanImage(context.Background(), img, m)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}
	dump(out)
}

func dump(out scanner.Outcome) {
	fmt.Printf("--- raw text ---\n%s\n--- candidates ---\n", out.RawText)
	for _, c := range out.Extraction.Candidates {
		fmt.Printf("line=%d anchored=%v %s=%q\n", c.Line, c.Anchored, c.Field, c.Value)
	}
	b, _ := json.MarshalIndent(out.Result(), "", "  ")
	fmt.Printf("--- result ---\n%s\nmissing=%v\n", b, out.Result().Missing())
}
