package warp

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/vision"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 3), uint8(y * 3), uint8((x * y) % 256), 255})
		}
	}
	return img
}

type failingEyes struct{}

func (failingEyes) DetectEyes(context.Context, image.Image) ([]types.Rect, error) {
	return nil, errors.New("detector offline")
}

func TestIdentityRemapIsExact(t *testing.T) {
	img := createTestImage(31, 17)
	out, err := Remap(img, IdentityField(31, 17))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestRemapDimensionMismatch(t *testing.T) {
	_, err := Remap(createTestImage(10, 10), IdentityField(10, 11))
	assert.True(t, errors.Is(err, types.ErrDimensionMismatch))

	f := IdentityField(10, 10)
	f.MapX = f.MapX[:5]
	_, err = Remap(createTestImage(10, 10), f)
	assert.True(t, errors.Is(err, types.ErrDimensionMismatch))
}

func TestRemapReplicatesEdges(t *testing.T) {
	img := createTestImage(8, 8)
	f := IdentityField(8, 8)
	for i := range f.MapX {
		f.MapX[i] = -5
		f.MapY[i] = 100
	}
	out, err := Remap(img, f)
	require.NoError(t, err)
	assert.Equal(t, img.NRGBAAt(0, 7), out.NRGBAAt(3, 3))
}

func TestSlimFaceFieldOutsideCircleIsIdentity(t *testing.T) {
	face := types.Rect{X: 20, Y: 20, Width: 40, Height: 40}
	f, err := SlimFaceField(80, 80, face, 100)
	require.NoError(t, err)

	cx, cy := face.Center()
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			i := y*80 + x
			assert.Equal(t, float32(y), f.MapY[i])
			dx, dy := float64(x-cx), float64(y-cy)
			if math.Sqrt(dx*dx+dy*dy) >= 20 || x == cx {
				assert.Equal(t, float32(x), f.MapX[i], "x=%d y=%d", x, y)
			}
		}
	}
	// left of centre samples further left, right samples further right
	assert.Less(t, f.MapX[cy*80+cx-10], float32(cx-10))
	assert.Greater(t, f.MapX[cy*80+cx+10], float32(cx+10))
}

func TestSlimFaceOnlyTouchesFaceCircle(t *testing.T) {
	img := createTestImage(60, 60)
	face := types.Rect{X: 10, Y: 10, Width: 30, Height: 30}
	out, err := SlimFace(img, []types.Rect{face}, 80)
	require.NoError(t, err)

	cx, cy := face.Center()
	changed := false
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if math.Sqrt(dx*dx+dy*dy) >= 15 {
				assert.Equal(t, img.NRGBAAt(x, y), out.NRGBAAt(x, y))
			} else if img.NRGBAAt(x, y) != out.NRGBAAt(x, y) {
				changed = true
			}
		}
	}
	assert.True(t, changed)
}

func TestSlimFaceNoOps(t *testing.T) {
	img := createTestImage(20, 20)

	out, err := SlimFace(img, nil, 50)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out, err = SlimFace(img, []types.Rect{{X: 2, Y: 2, Width: 10, Height: 10}}, 0)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out, err = SlimFace(img, []types.Rect{{X: 50, Y: 50, Width: 10, Height: 10}}, 50)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestSlimFaceInvalid(t *testing.T) {
	img := createTestImage(20, 20)

	_, err := SlimFace(img, []types.Rect{{Width: -1, Height: 5}}, 50)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))

	_, err = SlimFace(img, nil, 101)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))
}

func TestSlimFaceAppliesFacesInOrder(t *testing.T) {
	img := createTestImage(80, 40)
	a := types.Rect{X: 5, Y: 5, Width: 30, Height: 30}
	b := types.Rect{X: 25, Y: 5, Width: 30, Height: 30}

	got, err := SlimFace(img, []types.Rect{a, b}, 70)
	require.NoError(t, err)

	first, err := SlimFace(img, []types.Rect{a}, 70)
	require.NoError(t, err)
	want, err := SlimFace(first, []types.Rect{b}, 70)
	require.NoError(t, err)

	assert.Equal(t, want.Pix, got.Pix)
}

func TestEnlargeEyeFieldCentreIsFixed(t *testing.T) {
	f, err := EnlargeEyeField(40, 40, 20, 20, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, float32(20), f.MapX[20*40+20])
	assert.Equal(t, float32(20), f.MapY[20*40+20])

	// a pixel 5 to the right samples closer to the centre
	assert.Less(t, f.MapX[20*40+25], float32(25))
	assert.Greater(t, f.MapX[20*40+25], float32(20))

	// outside the radius nothing moves
	assert.Equal(t, float32(35), f.MapX[20*40+35])
}

func TestEnlargeEyesUsesFaceOffset(t *testing.T) {
	img := createTestImage(64, 64)
	face := types.Rect{X: 16, Y: 16, Width: 32, Height: 32}
	eyes := vision.Static{Eyes: []types.Rect{{X: 4, Y: 6, Width: 8, Height: 6}}}

	out, err := EnlargeEyes(context.Background(), img, []types.Rect{face}, eyes, 100)
	require.NoError(t, err)

	cx, cy := 16+4+4, 16+6+3
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if math.Sqrt(dx*dx+dy*dy) >= 8 {
				assert.Equal(t, img.NRGBAAt(x, y), out.NRGBAAt(x, y))
			}
		}
	}
	assert.Equal(t, img.NRGBAAt(cx, cy), out.NRGBAAt(cx, cy))
	assert.NotEqual(t, img.Pix, out.Pix)
}

// boundsEyes reports one eye at the top-left corner of the crop's bounds.
type boundsEyes struct{}

func (boundsEyes) DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error) {
	b := face.Bounds()
	return []types.Rect{{X: b.Min.X + 4, Y: b.Min.Y + 6, Width: 8, Height: 6}}, nil
}

func TestEnlargeEyesCropStartsAtOrigin(t *testing.T) {
	img := createTestImage(64, 64)
	face := types.Rect{X: 16, Y: 16, Width: 32, Height: 32}

	got, err := EnlargeEyes(context.Background(), img, []types.Rect{face}, boundsEyes{}, 100)
	require.NoError(t, err)
	want, err := EnlargeEyes(context.Background(), img, []types.Rect{face},
		vision.Static{Eyes: []types.Rect{{X: 4, Y: 6, Width: 8, Height: 6}}}, 100)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestFieldsAtImageEdge(t *testing.T) {
	f, err := SlimFaceField(30, 30, types.Rect{X: -10, Y: 20, Width: 24, Height: 24}, 100)
	require.NoError(t, err)
	assert.Equal(t, float32(29), f.MapX[5*30+29])

	f, err = EnlargeEyeField(30, 30, 29, 0, 8, 100)
	require.NoError(t, err)
	assert.Equal(t, float32(0), f.MapX[29*30])
	assert.Greater(t, f.MapX[2*30+27], float32(27))
}

func TestEnlargeEyesNoOps(t *testing.T) {
	img := createTestImage(30, 30)
	faces := []types.Rect{{X: 0, Y: 0, Width: 30, Height: 30}}
	ctx := context.Background()

	out, err := EnlargeEyes(ctx, img, faces, nil, 60)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out, err = EnlargeEyes(ctx, img, faces, vision.None{}, 60)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out, err = EnlargeEyes(ctx, img, nil, vision.Static{Eyes: []types.Rect{{Width: 5, Height: 5}}}, 60)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestEnlargeEyesWrapsDetectorError(t *testing.T) {
	img := createTestImage(30, 30)
	_, err := EnlargeEyes(context.Background(), img, []types.Rect{{Width: 20, Height: 20}}, failingEyes{}, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detector offline")
}

func BenchmarkSlimFace(b *testing.B) {
	img := createTestImage(600, 800)
	faces := []types.Rect{{X: 150, Y: 200, Width: 300, Height: 300}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SlimFace(img, faces, 50)
	}
}
