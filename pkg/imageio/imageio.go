// Package imageio loads, saves and encodes photos. Decoding understands
// JPEG, PNG, GIF, BMP, TIFF and WebP and applies the EXIF orientation.
package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Config holds loader settings
type Config struct {
	HTTPTimeout     time.Duration
	UserAgent       string
	AutoOrient      bool
	MaxDownloadSize int64
}

// DefaultConfig returns the default loader settings
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:     30 * time.Second,
		UserAgent:       "idphoto/1.0",
		AutoOrient:      true,
		MaxDownloadSize: 50 << 20,
	}
}

// Codec reads and writes images
type Codec struct {
	config Config
	client *http.Client
}

// New creates a Codec with default configuration
func New() *Codec {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Codec with custom configuration
func NewWithConfig(config Config) *Codec {
	return &Codec{
		config: config,
		client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Load reads an image file
func (c *Codec) Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	img, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadFromURL downloads and decodes an http(s) image
func (c *Codec) LoadFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	body := io.Reader(resp.Body)
	if c.config.MaxDownloadSize > 0 {
		body = io.LimitReader(resp.Body, c.config.MaxDownloadSize)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return c.Decode(data)
}

// LoadSmart loads source as a URL when it starts with http:// or https://
// and as a file path otherwise.
func (c *Codec) LoadSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.LoadFromURL(ctx, source)
	}
	return c.Load(source)
}

// Decode decodes encoded image bytes and, when enabled, rotates the result
// upright according to its EXIF orientation.
func (c *Codec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		var werr error
		if img, werr = webp.Decode(bytes.NewReader(data)); werr != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}
	if c.config.AutoOrient {
		img = Orient(img, Orientation(data))
	}
	return img, nil
}

// Orientation returns the EXIF orientation tag of data, or 1 when there
// is none.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// Orient transforms img so that an image stored with the given EXIF
// orientation displays upright.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Options controls encoding
type Options struct {
	// Format is jpg, png or webp. Empty means guess from the file name,
	// falling back to jpg.
	Format   string
	Quality  int
	Lossless bool
}

// DefaultOptions returns high quality JPEG output
func DefaultOptions() Options {
	return Options{Format: "jpg", Quality: 95}
}

// FormatFromPath returns the output format implied by the extension of path
func FormatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpg"
	}
}

// Encode writes img to w
func Encode(w io.Writer, img image.Image, opts Options) error {
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	switch strings.ToLower(opts.Format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case "jpg", "jpeg", "":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Save writes img to path, creating parent directories.
func Save(img image.Image, path string, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatFromPath(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Encode(f, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// CompressJPEG encodes img as JPEG, lowering quality from 95 in steps of 5
// until the file is at most maxKB kilobytes or quality 10 is reached. It
// returns the bytes and the quality used.
func CompressJPEG(img image.Image, maxKB int) ([]byte, int, error) {
	var buf bytes.Buffer
	quality := 95
	for {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, 0, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		if maxKB <= 0 || buf.Len() <= maxKB*1024 || quality-5 <= 5 {
			return buf.Bytes(), quality, nil
		}
		quality -= 5
	}
}

// EncodeBase64 downsizes img so its longest side is at most maxDim (when
// maxDim > 0) and returns it base64 encoded, for vision model requests.
func EncodeBase64(img image.Image, format string, maxDim, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		if w, h := b.Dx(), b.Dy(); w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, Options{Format: format, Quality: quality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
