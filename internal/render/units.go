package render

// All lengths in this package are millimetres.
const (
	// PtToMm converts typographic points to millimetres.
	PtToMm = 25.4 / 72
	// MmToPt converts millimetres to typographic points.
	MmToPt = 72 / 25.4
	// PxToMm converts CSS pixels (96 per inch) to millimetres.
	PxToMm = 25.4 / 96
	// MmToPx converts millimetres to CSS pixels.
	MmToPx = 96 / 25.4
)

// Rem converts a CSS rem length (16px root) to millimetres.
func Rem(v float64) float64 { return v * 16 * PxToMm }

// Px converts CSS pixels to millimetres.
func Px(v float64) float64 { return v * PxToMm }
