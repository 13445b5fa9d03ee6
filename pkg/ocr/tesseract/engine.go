// Package tesseract adapts gosseract to ocr.Recognizer.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// LabelWhitelist limits recognition to the characters printed on labels.
const LabelWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz.,:;#/()-_ "

// Engine runs Tesseract once per call. A fresh client is created for every
// image, so an Engine is safe for concurrent use.
type Engine struct {
	Languages []string
	PSM       gosseract.PageSegMode
	Whitelist string
}

// New returns an engine with automatic page segmentation; English when no
// language is given.
func New(langs ...string) *Engine {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Engine{Languages: langs, PSM: gosseract.PSM_AUTO, Whitelist: LabelWhitelist}
}

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	if len(e.Languages) > 0 {
		if err := client.SetLanguage(e.Languages...); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := client.SetPageSegMode(e.PSM); err != nil {
		return "", fmt.Errorf("set psm: %w", err)
	}
	if e.Whitelist != "" {
		if err := client.SetWhitelist(e.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}
