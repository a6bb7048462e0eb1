// Package units converts between print sizes in millimetres and pixels.
package units

// MMPerInch is the number of millimetres in an inch
const MMPerInch = 25.4

// DefaultDPI is the print resolution used when none is given
const DefaultDPI = 300

// MMToPixels converts a length in millimetres to whole pixels at dpi,
// truncating the fractional pixel.
func MMToPixels(mm float64, dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return int(mm * float64(dpi) / MMPerInch)
}

// PixelsToMM converts a pixel length back to millimetres at dpi.
func PixelsToMM(px int, dpi int) float64 {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return float64(px) * MMPerInch / float64(dpi)
}
