package ocr

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// MinHeight is the height below which Enhance upscales.
	MinHeight = 900
	// UpscaleHeight is the target height of that upscale.
	UpscaleHeight = 1300
	// cropStride samples every Nth pixel when locating the label region.
	cropStride = 4
	// cropMinSide is the smallest region AutoCrop will cut out.
	cropMinSide = 50
)

// Open loads an image file, honouring EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return img, nil
}

// Decode reads an image from r, honouring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Enhance prepares a photo for recognition: grayscale, a contrast and sharpen
// pass, and an upscale for small captures.
func Enhance(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < MinHeight {
		gray = imaging.Resize(gray, 0, UpscaleHeight, imaging.Lanczos)
	}
	return gray, nil
}

// AutoCrop cuts img down to the bounding box of pixels brighter than the mean
// luma, sampled on a 4 px grid. Labels are usually the brightest thing in the
// frame. When the box is under 50 px on either side the grayscale image is
// returned instead.
func AutoCrop(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return gray, nil
	}
	var total uint64
	for i := 0; i < len(gray.Pix); i += 4 {
		total += uint64(gray.Pix[i])
	}
	threshold := uint8(total / uint64(w*h))

	minX, minY, maxX, maxY := w, h, 0, 0
	for y := 0; y < h; y += cropStride {
		for x := 0; x < w; x += cropStride {
			if gray.Pix[y*gray.Stride+x*4] <= threshold {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX-minX < cropMinSide || maxY-minY < cropMinSide {
		return gray, nil
	}
	o := img.Bounds().Min
	return imaging.Crop(img, image.Rect(o.X+minX, o.Y+minY, o.X+maxX, o.Y+maxY)), nil
}

// Aggressive is the heavier preparation used when a normal pass found nothing:
// Enhance, then a global threshold, a mean adaptive threshold and one round of
// dilation to thicken faint print.
func Aggressive(img image.Image) (*image.NRGBA, error) {
	gray, err := Enhance(img)
	if err != nil {
		return nil, err
	}
	gray = imaging.Sharpen(imaging.AdjustContrast(gray, 25), 1.2)
	bin := binarize(gray, 210)
	adv := adaptiveThreshold(bin, 15, 7)
	return dilate(adv, 1), nil
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8 = 255
			if luma(img.At(x, y)) <= int(threshold) {
				v = 0
			}
			out.Set(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// adaptiveThreshold blackens pixels darker than their neighbourhood mean minus
// bias. The mean comes from an integral image.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	pix := make([]int, w*h)
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			v := luma(img.At(b.Min.X+x, b.Min.Y+y))
			pix[y*w+x] = v
			rowSum += v
			if y == 0 {
				ints[y*w+x] = rowSum
			} else {
				ints[y*w+x] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-half, 0), max(y-half, 0)
			x1, y1 := min(x+half, w-1), min(y+half, h-1)
			mean := windowSum(ints, w, x0, y0, x1, y1) / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if pix[y*w+x] < max(mean-bias, 0) {
				out.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return out
}

// windowSum returns the sum over the inclusive box (x0,y0)-(x1,y1) of the
// integral image ints, which is w wide.
func windowSum(ints []int, w, x0, y0, x1, y1 int) int {
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return ints[y*w+x]
	}
	return at(x1, y1) - at(x1, y0-1) - at(x0-1, y1) + at(x0-1, y0-1)
}

// dilate grows black pixels into their 4-neighbourhood radius times.
func dilate(img *image.NRGBA, radius int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cur := img
	for r := 0; r < radius; r++ {
		next := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for _, d := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					x2, y2 := x+d[0], y+d[1]
					if x2 < 0 || y2 < 0 || x2 >= w || y2 >= h {
						continue
					}
					if cur.Pix[y2*cur.Stride+x2*4] == 0 {
						next.Set(x, y, color.NRGBA{0, 0, 0, 255})
						break
					}
				}
			}
		}
		cur = next
	}
	return cur
}

func luma(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int((r + g + b) / 3 >> 8)
}
