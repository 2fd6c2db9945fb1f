package analysis

import (
	"errors"
	"image"
	"math"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

// ErrNoAnalyzableRegion is returned when no sampled pixel passes the luma filter
var ErrNoAnalyzableRegion = errors.New("no analyzable skin region")

// Luma returns the weighted brightness of an RGB triple
func Luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// Saturation returns (max-min)/max as a percentage, 0 for black
func Saturation(r, g, b float64) float64 {
	maxC := math.Max(r, math.Max(g, b))
	if maxC == 0 {
		return 0
	}
	minC := math.Min(r, math.Min(g, b))
	return (maxC - minC) / maxC * 100
}

// isRed reports whether R dominates both other channels and is itself bright
func (t Thresholds) isRed(r, g, b float64) bool {
	return r > g+t.RedChannelMargin &&
		r > b+t.RedChannelMargin &&
		r > t.RedMinValue &&
		r > t.RedBrightValue
}

// isShiny reports a specular highlight: bright and desaturated
func (t Thresholds) isShiny(brightness, saturation float64) bool {
	return (brightness > t.ShineBrightness && saturation < t.ShineSaturation) ||
		(brightness > t.StrongShineBrightness && saturation < t.StrongShineSaturation)
}

// ExtractFeatures scans a sub-sampled grid over the central region of img and
// aggregates brightness, saturation, redness, shine, texture and colour statistics.
func ExtractFeatures(img *image.RGBA, t Thresholds) (domain.ImageFeatures, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	step := t.SampleStep
	if step <= 0 {
		step = 1
	}
	marginX := int(math.Floor(float64(width) * t.MarginRatio))
	marginY := int(math.Floor(float64(height) * t.MarginRatio))

	var (
		brightness   []float64
		reds, greens []float64
		blues        []float64
		sumSat       float64
		redCount     int
		shineCount   int
	)

	for y := marginY; y < height-marginY; y += step {
		for x := marginX; x < width-marginX; x += step {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			b := float64(img.Pix[i+2])

			luma := Luma(r, g, b)
			if luma < t.MinLuma || luma > t.MaxLuma {
				continue
			}

			sat := Saturation(r, g, b)

			brightness = append(brightness, luma)
			reds = append(reds, r)
			greens = append(greens, g)
			blues = append(blues, b)
			sumSat += sat

			if t.isRed(r, g, b) {
				redCount++
			}
			if t.isShiny(luma, sat) {
				shineCount++
			}
		}
	}

	n := len(brightness)
	if n == 0 {
		return domain.ImageFeatures{}, ErrNoAnalyzableRegion
	}

	avgBrightness, textureVariance := meanVariance(brightness)
	_, varR := meanVariance(reds)
	_, varG := meanVariance(greens)
	_, varB := meanVariance(blues)
	avgChannelStdDev := (math.Sqrt(varR) + math.Sqrt(varG) + math.Sqrt(varB)) / 3

	return domain.ImageFeatures{
		AvgBrightness:   avgBrightness,
		AvgSaturation:   sumSat / float64(n),
		RednessLevel:    float64(redCount) / float64(n) * 100,
		OilinessLevel:   float64(shineCount) / float64(n) * 100,
		TextureVariance: textureVariance,
		ColorUniformity: math.Max(0, 100-avgChannelStdDev/2.55),
		PixelCount:      n,
	}, nil
}

// meanVariance returns the mean and population variance of values
func meanVariance(values []float64) (mean, variance float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, variance
}
