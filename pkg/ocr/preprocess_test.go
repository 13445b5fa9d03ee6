package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestEnhanceUpscalesSmallImages(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{200, 10, 10, 255})
	out, err := Enhance(img)
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if out.Bounds().Dy() != UpscaleHeight {
		t.Fatalf("expected height %d got %d", UpscaleHeight, out.Bounds().Dy())
	}
	r, g, b, _ := out.At(10, 10).RGBA()
	if r != g || g != b {
		t.Fatalf("expected grayscale pixel got %d %d %d", r, g, b)
	}
	if _, err := Enhance(nil); !errors.Is(err, ErrNilImage) {
		t.Fatalf("expected ErrNilImage got %v", err)
	}
}

func TestAutoCropFindsBrightRegion(t *testing.T) {
	bg := imaging.New(400, 400, color.NRGBA{0, 0, 0, 255})
	label := imaging.New(200, 200, color.NRGBA{255, 255, 255, 255})
	img := imaging.Paste(bg, label, image.Pt(100, 100))
	out, err := AutoCrop(img)
	if err != nil {
		t.Fatalf("autocrop: %v", err)
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w < 190 || w > 200 || h < 190 || h > 200 {
		t.Fatalf("expected roughly 200x200 crop got %dx%d", w, h)
	}
}

func TestAutoCropKeepsFrameWhenRegionTooSmall(t *testing.T) {
	bg := imaging.New(400, 300, color.NRGBA{0, 0, 0, 255})
	spot := imaging.New(20, 20, color.NRGBA{255, 255, 255, 255})
	out, err := AutoCrop(imaging.Paste(bg, spot, image.Pt(50, 50)))
	if err != nil {
		t.Fatalf("autocrop: %v", err)
	}
	if out.Bounds().Dx() != 400 || out.Bounds().Dy() != 300 {
		t.Fatalf("expected full frame got %v", out.Bounds())
	}
}

func TestAggressiveKeepsSize(t *testing.T) {
	img := imaging.New(120, 60, color.NRGBA{240, 240, 240, 255})
	out, err := Aggressive(img)
	if err != nil {
		t.Fatalf("aggressive: %v", err)
	}
	if out.Bounds().Dy() != UpscaleHeight {
		t.Fatalf("expected upscaled output got %v", out.Bounds())
	}
}

func TestRotateImageSwapsSides(t *testing.T) {
	img := imaging.New(100, 50, color.White)
	out := RotateImage(img, 90)
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 100 {
		t.Fatalf("expected 50x100 got %v", out.Bounds())
	}
	if RotateImage(img, 0) != image.Image(img) {
		t.Fatalf("expected zero rotation to return the input")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatalf("expected decode error")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(8, 8, color.White), imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := Decode(&buf)
	if err != nil || img.Bounds().Dx() != 8 {
		t.Fatalf("expected 8px image got %v %v", img, err)
	}
}

func TestWindowSumMatchesBruteForce(t *testing.T) {
	const w, h = 5, 4
	pix := make([]int, w*h)
	for i := range pix {
		pix[i] = (i*7 + 3) % 11
	}
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += pix[y*w+x]
			ints[y*w+x] = row
			if y > 0 {
				ints[y*w+x] += ints[(y-1)*w+x]
			}
		}
	}
	for y0 := 0; y0 < h; y0++ {
		for x0 := 0; x0 < w; x0++ {
			for y1 := y0; y1 < h; y1++ {
				for x1 := x0; x1 < w; x1++ {
					want := 0
					for y := y0; y <= y1; y++ {
						for x := x0; x <= x1; x++ {
							want += pix[y*w+x]
						}
					}
					if got := windowSum(ints, w, x0, y0, x1, y1); got != want {
						t.Fatalf("box (%d,%d)-(%d,%d): expected %d got %d", x0, y0, x1, y1, want, got)
					}
				}
			}
		}
	}
}

func TestAdaptiveThresholdMarksOnlyDarkPixels(t *testing.T) {
	img := imaging.New(9, 9, color.NRGBA{200, 200, 200, 255})
	img.Set(4, 4, color.NRGBA{20, 20, 20, 255})
	out := adaptiveThreshold(img, 3, 7)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			black := out.Pix[y*out.Stride+x*4] == 0
			if black != (x == 4 && y == 4) {
				t.Fatalf("pixel (%d,%d): black=%v", x, y, black)
			}
		}
	}
}
