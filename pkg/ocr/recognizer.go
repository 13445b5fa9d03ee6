package ocr

import (
	"context"
	"image"
)

// Recognizer turns an image into text. Implementations may be slow and may
// fail; Consensus treats every failure as an empty transcription.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// RecognizerFunc adapts a plain function to Recognizer.
type RecognizerFunc func(ctx context.Context, img image.Image) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}
