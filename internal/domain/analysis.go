package domain

import "context"

// SkinType is one of the five mutually exclusive skin categories
type SkinType string

const (
	SkinTypeNormal      SkinType = "normal"
	SkinTypeDry         SkinType = "dry"
	SkinTypeOily        SkinType = "oily"
	SkinTypeSensitive   SkinType = "sensitive"
	SkinTypeCombination SkinType = "combination"
)

// ImageFeatures holds the photometric statistics extracted from one photo.
// Percentages are in [0,100], AvgBrightness in [0,255].
type ImageFeatures struct {
	AvgBrightness   float64 `bson:"avg_brightness" json:"avgBrightness"`
	AvgSaturation   float64 `bson:"avg_saturation" json:"avgSaturation"`
	RednessLevel    float64 `bson:"redness_level" json:"rednessLevel"`
	OilinessLevel   float64 `bson:"oiliness_level" json:"oilinessLevel"`
	TextureVariance float64 `bson:"texture_variance" json:"textureVariance"`
	ColorUniformity float64 `bson:"color_uniformity" json:"colorUniformity"`
	PixelCount      int     `bson:"pixel_count" json:"pixelCount"`
}

// SkinTypeResult is the classifier output
type SkinTypeResult struct {
	SkinType   SkinType `bson:"skin_type" json:"skinType"`
	Confidence int      `bson:"confidence" json:"confidence"`
}

// MetricAnalysis is a single named sub-score with its banded description.
// Zones is only set for oiliness.
type MetricAnalysis struct {
	Score       int            `bson:"score" json:"score"`
	Description string         `bson:"description" json:"description"`
	Zones       map[string]int `bson:"zones,omitempty" json:"zones,omitempty"`
}

// SkinAnalysis groups the five sub-scores exposed in the report
type SkinAnalysis struct {
	Oiliness    MetricAnalysis `bson:"oiliness" json:"oiliness"`
	PoreSize    MetricAnalysis `bson:"pore_size" json:"poreSize"`
	Texture     MetricAnalysis `bson:"texture" json:"texture"`
	Sensitivity MetricAnalysis `bson:"sensitivity" json:"sensitivity"`
	Hydration   MetricAnalysis `bson:"hydration" json:"hydration"`
}

// AnalysisReport is the JSON-serializable result of one analysis
type AnalysisReport struct {
	SkinType        SkinType      `bson:"skin_type" json:"skinType"`
	Confidence      int           `bson:"confidence" json:"confidence"`
	Analysis        SkinAnalysis  `bson:"analysis" json:"analysis"`
	Recommendations []string      `bson:"recommendations" json:"recommendations"`
	Scores          []OutputScore `bson:"scores" json:"scores"`

	// Fallback is true when the neutral report was substituted
	Fallback       bool   `bson:"fallback" json:"fallback"`
	FallbackReason string `bson:"fallback_reason,omitempty" json:"fallbackReason,omitempty"`
}

// AnalysisHints are optional free-form hints supplied with the photo
type AnalysisHints struct {
	Gender   string `bson:"gender,omitempty" json:"gender,omitempty"`
	AgeRange string `bson:"age_range,omitempty" json:"ageRange,omitempty"`
}

// SkinAnalyzer runs the image-based skin inference pipeline.
// It never fails: undecodable or unanalyzable images yield the fallback report.
type SkinAnalyzer interface {
	Analyze(ctx context.Context, imageData []byte, hints AnalysisHints) *AnalysisReport
}
