// Package analysis implements the image-based skin inference pipeline:
// loader -> feature extractor -> type classifier -> report builder.
//
// Every numeric threshold was tuned empirically against a small set of reference
// photos. They are exposed as configuration so they can be retuned, and the defaults
// must stay as they are for behavioural compatibility.
package analysis

// Thresholds configures image normalisation and pixel classification
type Thresholds struct {
	// Resolution is the side of the square the photo is resampled to
	Resolution int
	// MarginRatio of each side excluded as background/hair
	MarginRatio float64
	// SampleStep in pixels along each axis
	SampleStep int

	// Pixels with luma outside [MinLuma, MaxLuma] are ignored
	MinLuma float64
	MaxLuma float64

	// Redness: R exceeds G and B by RedChannelMargin, and R > RedMinValue and R > RedBrightValue
	RedChannelMargin float64
	RedMinValue      float64
	RedBrightValue   float64

	// Oiliness (specular shine): bright and desaturated
	ShineBrightness       float64
	ShineSaturation       float64
	StrongShineBrightness float64
	StrongShineSaturation float64
}

// DefaultThresholds returns the tuned production values
func DefaultThresholds() Thresholds {
	return Thresholds{
		Resolution:  256,
		MarginRatio: 0.15,
		SampleStep:  2,

		MinLuma: 30,
		MaxLuma: 240,

		RedChannelMargin: 35,
		RedMinValue:      130,
		RedBrightValue:   150,

		ShineBrightness:       160,
		ShineSaturation:       30,
		StrongShineBrightness: 140,
		StrongShineSaturation: 20,
	}
}

// Confidence tuning
const (
	BaseConfidence     = 75
	MaxConfidence      = 95
	FallbackConfidence = 70

	// LargeSampleBonus applies when more than LargeSamplePixels were analyzed
	LargeSampleBonus  = 5
	LargeSamplePixels = 1000
)
