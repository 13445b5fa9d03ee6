package main

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// maxProcessedBytes is the size above which processed photos are downscaled.
const maxProcessedBytes = 1_000_000

// moveToProcessed moves srcFullPath into processedDir/<name>, downscaling
// images larger than maxProcessedBytes. It attempts an atomic rename and falls
// back to copy+remove when necessary.
func moveToProcessed(srcFullPath, processedDir, name string) error {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(srcFullPath)
	if err != nil {
		return err
	}
	if fi.Size() <= maxProcessedBytes {
		return renameOrCopy(srcFullPath, dst)
	}
	img, err := imaging.Open(srcFullPath, imaging.AutoOrientation(true))
	if err != nil {
		return renameOrCopy(srcFullPath, dst)
	}
	// file size roughly scales with area
	scale := math.Sqrt(float64(maxProcessedBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	h := int(math.Max(1, math.Round(float64(img.Bounds().Dy())*scale)))
	if err := imaging.Save(imaging.Resize(img, w, h, imaging.Lanczos), dst); err != nil {
		return renameOrCopy(srcFullPath, dst)
	}
	_ = os.Remove(srcFullPath)
	// one more 80% pass if the encoder still overshoots
	if fi2, err := os.Stat(dst); err == nil && fi2.Size() > maxProcessedBytes {
		if img2, err := imaging.Open(dst); err == nil {
			_ = imaging.Save(imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos), dst)
		}
	}
	return nil
}

func renameOrCopy(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
