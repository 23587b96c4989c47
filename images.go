package mindflow

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an image from src, resizes it to maxImageWidth if
// wider, and re-encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// uploadFilename derives a collision-free name for an uploaded file: the
// slugified original base name plus a random suffix.
func uploadFilename(originalName string) string {
	base := Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-%s.jpg", base, uuid.NewString()[:8])
}

// saveUpload processes a multipart image upload, writes it under the uploads
// directory, and returns the public web path it is served at.
func (a *App) saveUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max 10MB)")
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := processImage(src)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.Config.Uploads.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	name := uploadFilename(fh.Filename)
	if err := os.WriteFile(filepath.Join(a.Config.Uploads.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return "/uploads/" + name, nil
}
