package ocr

import (
	"context"
	"image"
	"image/color"
	"log"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Rotator returns img rotated by angle degrees counter-clockwise.
type Rotator func(img image.Image, angle float64) image.Image

// RotateImage is the default Rotator. Uncovered corners are filled white so
// the recognizer sees label background rather than black bars.
func RotateImage(img image.Image, angle float64) image.Image {
	if angle == 0 {
		return img
	}
	return imaging.Rotate(img, angle, color.White)
}

const (
	DefaultTiltAngle       = 15
	DefaultEarlyExitLength = 30
)

// DefaultOrientations is the sweep used by ResolveBestText.
var DefaultOrientations = []float64{0, 90, 180, 270}

type ConsensusConfig struct {
	// Orientations are tried in order; ties go to the earlier entry.
	Orientations []float64
	// TiltAngle is the small correction tried on both sides of each orientation.
	TiltAngle float64
	// EarlyExitLength: a base attempt longer than this skips the tilts.
	EarlyExitLength int
	// Parallel runs orientations concurrently, at most Workers at a time.
	Parallel bool
	Workers  int
}

// DefaultConsensusConfig returns the four-way sweep with a 15 degree tilt.
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		Orientations:    append([]float64(nil), DefaultOrientations...),
		TiltAngle:       DefaultTiltAngle,
		EarlyExitLength: DefaultEarlyExitLength,
	}
}

func (c ConsensusConfig) normalized() ConsensusConfig {
	if len(c.Orientations) == 0 {
		c.Orientations = append([]float64(nil), DefaultOrientations...)
	}
	if c.EarlyExitLength < 0 {
		c.EarlyExitLength = DefaultEarlyExitLength
	}
	if c.Workers <= 0 || c.Workers > len(c.Orientations) {
		c.Workers = len(c.Orientations)
	}
	return c
}

type ConsensusOption func(*Consensus)

func WithRotator(r Rotator) ConsensusOption {
	return func(c *Consensus) {
		if r != nil {
			c.rotate = r
		}
	}
}

func WithConfig(cfg ConsensusConfig) ConsensusOption {
	return func(c *Consensus) { c.cfg = cfg }
}

func WithParallel(workers int) ConsensusOption {
	return func(c *Consensus) {
		c.cfg.Parallel = true
		c.cfg.Workers = workers
	}
}

// Consensus asks a Recognizer for several rotated variants of one image and
// keeps the longest transcription.
type Consensus struct {
	rec    Recognizer
	rotate Rotator
	cfg    ConsensusConfig
}

func NewConsensus(rec Recognizer, opts ...ConsensusOption) *Consensus {
	c := &Consensus{rec: rec, rotate: RotateImage, cfg: DefaultConsensusConfig()}
	for _, o := range opts {
		o(c)
	}
	c.cfg = c.cfg.normalized()
	return c
}

// Config returns the effective configuration.
func (c *Consensus) Config() ConsensusConfig { return c.cfg }

// ResolveBestText refines every orientation of base and returns the longest
// result. It never fails: recognizer errors and a cancelled ctx count as "".
func (c *Consensus) ResolveBestText(ctx context.Context, base image.Image) string {
	if base == nil {
		return ""
	}
	texts := make([]string, len(c.cfg.Orientations))
	if c.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.Workers)
		for i, angle := range c.cfg.Orientations {
			i, angle := i, angle
			g.Go(func() error {
				texts[i] = c.Refine(gctx, c.rotate(base, angle))
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, angle := range c.cfg.Orientations {
			texts[i] = c.Refine(ctx, c.rotate(base, angle))
		}
	}
	best, at := Longest(texts)
	log.Printf("ocr consensus winner=%d angle=%v len=%d text=%q", at, c.cfg.Orientations[at], utf8.RuneCountInString(best), snippet(best, 60))
	return best
}

// Refine recognizes img as is and, unless that already yields more than
// EarlyExitLength characters, with the tilt applied in both directions.
func (c *Consensus) Refine(ctx context.Context, img image.Image) string {
	base := c.attempt(ctx, img)
	if utf8.RuneCountInString(base) > c.cfg.EarlyExitLength || c.cfg.TiltAngle == 0 {
		return base
	}
	plus := c.attempt(ctx, c.rotate(img, c.cfg.TiltAngle))
	minus := c.attempt(ctx, c.rotate(img, -c.cfg.TiltAngle))
	best, _ := Longest([]string{base, plus, minus})
	return best
}

func (c *Consensus) attempt(ctx context.Context, img image.Image) string {
	if ctx.Err() != nil || img == nil {
		return ""
	}
	text, err := c.rec.Recognize(ctx, img)
	if err != nil {
		log.Printf("ocr recognize failed err=%v", err)
		return ""
	}
	return text
}

// Longest returns the text with the most characters and its index. Ties go to
// the earliest entry; an empty slice yields ("", 0).
func Longest(texts []string) (string, int) {
	best, at, n := "", 0, -1
	for i, t := range texts {
		if l := utf8.RuneCountInString(t); l > n {
			best, at, n = t, i, l
		}
	}
	return best, at
}
