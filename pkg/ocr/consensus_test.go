package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
)

// tagged is a 1x1 image that remembers how far it has been rotated.
type tagged struct{ angle float64 }

func (t tagged) ColorModel() color.Model { return color.GrayModel }
func (t tagged) Bounds() image.Rectangle { return image.Rect(0, 0, 1, 1) }
func (t tagged) At(int, int) color.Color { return color.White }

func tagRotate(img image.Image, angle float64) image.Image {
	return tagged{angle: math.Mod(img.(tagged).angle+angle+360, 360)}
}

// scripted answers with texts[angle]; unknown angles read as "".
type scripted struct {
	texts map[float64]string
	fail  map[float64]bool
	calls atomic.Int32
}

func (s *scripted) Recognize(_ context.Context, img image.Image) (string, error) {
	s.calls.Add(1)
	a := img.(tagged).angle
	if s.fail[a] {
		return "", errors.New("engine exploded")
	}
	return s.texts[a], nil
}

func TestResolveBestTextPicksLongestEarliest(t *testing.T) {
	rec := &scripted{texts: map[float64]string{
		0:   strings.Repeat("w", 12),
		90:  strings.Repeat("a", 45),
		180: strings.Repeat("z", 3),
		270: strings.Repeat("b", 45),
	}}
	c := NewConsensus(rec, WithRotator(tagRotate))
	got := c.ResolveBestText(context.Background(), tagged{})
	if got != strings.Repeat("a", 45) {
		t.Fatalf("expected the 90 degree text got %q", got)
	}
	// 0 and 180 are short and try both tilts; 90 and 270 exit early.
	if n := rec.calls.Load(); n != 8 {
		t.Fatalf("expected 8 recognizer calls got %d", n)
	}
}

func TestRefineEarlyExit(t *testing.T) {
	long := strings.Repeat("x", DefaultEarlyExitLength+1)
	rec := &scripted{texts: map[float64]string{0: long, 15: long + "more"}}
	c := NewConsensus(rec, WithRotator(tagRotate))
	if got := c.Refine(context.Background(), tagged{}); got != long {
		t.Fatalf("expected base text got %q", got)
	}
	if rec.calls.Load() != 1 {
		t.Fatalf("expected one call got %d", rec.calls.Load())
	}

	// exactly at the threshold the tilts are still tried
	edge := strings.Repeat("x", DefaultEarlyExitLength)
	rec = &scripted{texts: map[float64]string{0: edge, 345: edge + "y"}}
	c = NewConsensus(rec, WithRotator(tagRotate))
	if got := c.Refine(context.Background(), tagged{}); got != edge+"y" {
		t.Fatalf("expected minus tilt text got %q", got)
	}
	if rec.calls.Load() != 3 {
		t.Fatalf("expected three calls got %d", rec.calls.Load())
	}
}

func TestRefineMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		rec := &scripted{texts: map[float64]string{
			0:   strings.Repeat("a", rng.Intn(40)),
			15:  strings.Repeat("b", rng.Intn(40)),
			345: strings.Repeat("c", rng.Intn(40)),
		}}
		c := NewConsensus(rec, WithRotator(tagRotate))
		got := c.Refine(context.Background(), tagged{})
		if len(got) < len(rec.texts[0]) {
			t.Fatalf("refine shrank %d -> %d", len(rec.texts[0]), len(got))
		}
	}
}

func TestResolveBestTextAbsorbsFailures(t *testing.T) {
	rec := &scripted{
		texts: map[float64]string{0: "PO: GRO024 Qty 1086", 180: "short"},
		fail:  map[float64]bool{0: true},
	}
	c := NewConsensus(rec, WithRotator(tagRotate))
	if got := c.ResolveBestText(context.Background(), tagged{}); got != "short" {
		t.Fatalf("expected surviving variant got %q", got)
	}
}

func TestResolveBestTextCancelled(t *testing.T) {
	rec := &scripted{texts: map[float64]string{0: "anything"}}
	c := NewConsensus(rec, WithRotator(tagRotate))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.ResolveBestText(ctx, tagged{}); got != "" {
		t.Fatalf("expected empty text on cancelled context got %q", got)
	}
	if rec.calls.Load() != 0 {
		t.Fatalf("expected no recognizer calls got %d", rec.calls.Load())
	}
	if got := c.ResolveBestText(context.Background(), nil); got != "" {
		t.Fatalf("expected empty text for nil image got %q", got)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		texts := map[float64]string{}
		for _, a := range []float64{0, 15, 345, 90, 105, 75, 180, 195, 165, 270, 285, 255} {
			texts[a] = strings.Repeat(string(rune('a'+rng.Intn(26))), rng.Intn(35))
		}
		seq := NewConsensus(&scripted{texts: texts}, WithRotator(tagRotate))
		par := NewConsensus(&scripted{texts: texts}, WithRotator(tagRotate), WithParallel(3))
		a := seq.ResolveBestText(context.Background(), tagged{})
		b := par.ResolveBestText(context.Background(), tagged{})
		if a != b {
			t.Fatalf("parallel %q != sequential %q", b, a)
		}
	}
}

func TestLongest(t *testing.T) {
	if s, i := Longest(nil); s != "" || i != 0 {
		t.Fatalf("expected empty result for no texts")
	}
	// rune count, not bytes
	if s, i := Longest([]string{"ééé", "abcd", "wxyz"}); s != "abcd" || i != 1 {
		t.Fatalf("expected abcd at 1 got %q at %d", s, i)
	}
}

func TestNewConsensusNormalizesConfig(t *testing.T) {
	c := NewConsensus(&scripted{}, WithConfig(ConsensusConfig{EarlyExitLength: -1, Workers: 99}))
	cfg := c.Config()
	if len(cfg.Orientations) != 4 || cfg.EarlyExitLength != DefaultEarlyExitLength || cfg.Workers != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestSnippetFlattensAndTruncates(t *testing.T) {
	if got := snippet("Stock\tCode\n\nF19", 20); got != "Stock Code F19" {
		t.Fatalf("expected flattened text got %q", got)
	}
	if got := snippet("ÔÔÔÔÔ", 3); got != "ÔÔÔ…" {
		t.Fatalf("expected rune-safe truncation got %q", got)
	}
}
