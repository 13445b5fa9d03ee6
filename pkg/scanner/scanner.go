// Package scanner wires image preparation, OCR consensus and the label parser
// into the one call the service and batch tools use.
package scanner

import (
	"context"
	"fmt"
	"image"
	"log"

	"labelscan/pkg/label"
	"labelscan/pkg/ocr"
)

// Mode selects how the image is prepared before recognition.
type Mode int

const (
	ModeEnhance Mode = iota
	ModeAutoCrop
	ModeAggressive
)

type Scanner struct {
	consensus *ocr.Consensus
	parser    *label.Parser
}

func New(c *ocr.Consensus, p *label.Parser) *Scanner {
	if p == nil {
		p = label.NewParser(label.DefaultConfig())
	}
	return &Scanner{consensus: c, parser: p}
}

func (s *Scanner) Parser() *label.Parser { return s.parser }

// Outcome is the winner text and what the parser made of it.
type Outcome struct {
	RawText    string
	Extraction label.Extraction
}

// Result is a shorthand for o.Extraction.Result.
func (o Outcome) Result() label.ScanResult { return o.Extraction.Result }

// Prepare applies mode to img.
func Prepare(img image.Image, mode Mode) (image.Image, error) {
	switch mode {
	case ModeAutoCrop:
		cropped, err := ocr.AutoCrop(img)
		if err != nil {
			return nil, err
		}
		return ocr.Enhance(cropped)
	case ModeAggressive:
		return ocr.Aggressive(img)
	default:
		return ocr.Enhance(img)
	}
}

// ScanImage prepares img, resolves the best transcription and parses it. The
// only error is an unusable image; recognition trouble yields an empty result,
// as does a scanner built without a consensus.
func (s *Scanner) ScanImage(ctx context.Context, img image.Image, mode Mode) (Outcome, error) {
	prepared, err := Prepare(img, mode)
	if err != nil {
		return Outcome{}, fmt.Errorf("prepare image: %w", err)
	}
	var text string
	if s.consensus != nil {
		text = s.consensus.ResolveBestText(ctx, prepared)
	}
	out := Outcome{RawText: text, Extraction: s.parser.Extract(text)}
	log.Printf("scan done mode=%d text_len=%d candidates=%d missing=%v", mode, len(text), len(out.Extraction.Candidates), out.Result().Missing())
	return out, nil
}

// ScanFile opens path and scans it.
func (s *Scanner) ScanFile(ctx context.Context, path string, mode Mode) (Outcome, error) {
	img, err := ocr.Open(path)
	if err != nil {
		return Outcome{}, err
	}
	return s.ScanImage(ctx, img, mode)
}

// ScanText parses text that was recognized elsewhere.
func (s *Scanner) ScanText(text string) Outcome {
	return Outcome{RawText: text, Extraction: s.parser.Extract(text)}
}
