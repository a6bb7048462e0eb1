// Package warp implements the local geometric retouching used on portraits:
// face slimming and eye enlargement. Both are expressed as displacement
// fields that map every destination pixel to a source coordinate, applied
// with bilinear resampling.
package warp

import (
	"fmt"
	"math"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

const (
	// SlimCoefficient scales the horizontal pull of the slimming field.
	SlimCoefficient = 0.3

	// EyeScaleCoefficient is the magnification at the eye centre for full
	// strength (1.5x).
	EyeScaleCoefficient = 0.5
)

// Field maps each destination pixel (x, y) to the source coordinate
// (MapX[i], MapY[i]) with i = y*Width + x.
type Field struct {
	Width  int
	Height int
	MapX   []float32
	MapY   []float32
}

// IdentityField returns a field that maps every pixel onto itself. The
// retouching fields start from it and only rewrite pixels inside their
// circle.
func IdentityField(width, height int) Field {
	f := newField(width, height)
	raster.Rows(height, func(y int) {
		row := y * width
		for x := 0; x < width; x++ {
			f.MapX[row+x] = float32(x)
			f.MapY[row+x] = float32(y)
		}
	})
	return f
}

// SlimFaceField builds the slimming field for one face. Inside the circle of
// radius face.Width/2 around the face centre, pixels sample from further out
// along x, which pulls the cheeks towards the centre. Outside the circle and
// on the centre column the field is the identity.
func SlimFaceField(width, height int, face types.Rect, strength int) (Field, error) {
	if err := checkField(width, height, strength); err != nil {
		return Field{}, err
	}
	cx, cy := face.Center()
	radius := face.Width / 2
	s := float64(strength) / 100

	f := IdentityField(width, height)
	if radius <= 0 || strength == 0 {
		return f, nil
	}
	r := float64(radius)
	x0, x1 := max(0, cx-radius), min(width, cx+radius+1)
	raster.Rows(height, func(y int) {
		dy := float64(y - cy)
		if math.Abs(dy) >= r {
			return
		}
		row := y * width
		for x := x0; x < x1; x++ {
			dx := float64(x - cx)
			if dx == 0 {
				continue
			}
			if d := math.Sqrt(dx*dx + dy*dy); d < r {
				factor := s * (1 - d/r)
				f.MapX[row+x] = float32(float64(x) + dx*factor*SlimCoefficient)
			}
		}
	})
	return f, nil
}

// EnlargeEyeField builds a magnifying field around (cx, cy). Within radius,
// the local scale is 1 + (1 - d/radius)*strength/100*EyeScaleCoefficient and
// the pixel samples from closer to the centre.
func EnlargeEyeField(width, height, cx, cy, radius, strength int) (Field, error) {
	if err := checkField(width, height, strength); err != nil {
		return Field{}, err
	}
	s := float64(strength) / 100
	r := float64(radius)

	f := IdentityField(width, height)
	if radius <= 0 || strength == 0 {
		return f, nil
	}
	x0, x1 := max(0, cx-radius), min(width, cx+radius+1)
	raster.Rows(height, func(y int) {
		dy := float64(y - cy)
		if math.Abs(dy) >= r {
			return
		}
		row := y * width
		for x := x0; x < x1; x++ {
			dx := float64(x - cx)
			if d := math.Sqrt(dx*dx + dy*dy); d < r {
				scale := 1 + (1-d/r)*s*EyeScaleCoefficient
				f.MapX[row+x] = float32(float64(x) - dx*(scale-1))
				f.MapY[row+x] = float32(float64(y) - dy*(scale-1))
			}
		}
	})
	return f, nil
}

func newField(width, height int) Field {
	n := width * height
	return Field{Width: width, Height: height, MapX: make([]float32, n), MapY: make([]float32, n)}
}

func checkField(width, height, strength int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("field size %dx%d: %w", width, height, types.ErrInvalidParameter)
	}
	return types.CheckRange("strength", strength, 0, 100)
}
