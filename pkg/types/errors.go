package types

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidParameter marks an argument outside its documented range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch marks inputs whose sizes do not agree, or a crop
	// that does not intersect the image.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrLayoutOverflow is returned when the requested photos do not fit on
	// the printable area of the paper.
	ErrLayoutOverflow = errors.New("layout does not fit on paper")
)

// CheckRange returns ErrInvalidParameter when v is outside [lo, hi].
func CheckRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s %d outside [%d, %d]: %w", name, v, lo, hi, ErrInvalidParameter)
	}
	return nil
}

// CheckImage rejects nil images and images without area.
func CheckImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrInvalidParameter)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("image has invalid dimensions %dx%d: %w", b.Dx(), b.Dy(), ErrInvalidParameter)
	}
	return nil
}
