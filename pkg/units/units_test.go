package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMMToPixels(t *testing.T) {
	tests := []struct {
		mm   float64
		dpi  int
		want int
	}{
		{25, 300, 295},
		{35, 300, 413},
		{102, 300, 1204},
		{152, 300, 1795},
		{25, 0, 295},
		{25, 600, 590},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MMToPixels(tt.mm, tt.dpi), "%vmm at %d dpi", tt.mm, tt.dpi)
	}
}

func TestPixelsToMM(t *testing.T) {
	assert.InDelta(t, 25.4, PixelsToMM(300, 300), 1e-9)
	assert.InDelta(t, 50.8, PixelsToMM(300, 150), 1e-9)
	assert.InDelta(t, 25.4, PixelsToMM(300, 0), 1e-9)
}
