package analysis

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

func TestEngine_Analyze(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))

	// warm, bright, saturated skin tone: red pixels everywhere, no shine
	data := encodePNG(t, solidImage(64, color.RGBA{R: 200, G: 120, B: 110, A: 255}))
	report := engine.Analyze(context.Background(), data, domain.AnalysisHints{AgeRange: "30-34"})

	assert.False(t, report.Fallback)
	assert.Equal(t, domain.SkinTypeNormal, report.SkinType)
	assert.Equal(t, MaxConfidence, report.Confidence)
	assert.Len(t, report.Scores, 8)
	assert.Contains(t, report.Recommendations, "Introduce a retinol serum at night, starting twice a week")
}

func TestEngine_FallbackOnExtractionFailure(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), nil)

	data := encodePNG(t, solidImage(64, color.RGBA{A: 255}))
	report := engine.Analyze(context.Background(), data, domain.AnalysisHints{})

	assert.True(t, report.Fallback)
	assert.Equal(t, FallbackExtraction, report.FallbackReason)
	assert.Equal(t, domain.SkinTypeNormal, report.SkinType)
	assert.Equal(t, 70, report.Confidence)
}

func TestEngine_FallbackOnDecodeFailure(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), nil)

	for _, data := range [][]byte{nil, []byte("GIF89a-but-not-really")} {
		report := engine.Analyze(context.Background(), data, domain.AnalysisHints{})

		assert.True(t, report.Fallback)
		assert.Equal(t, FallbackDecode, report.FallbackReason)
		assert.Equal(t, FallbackConfidence, report.Confidence)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), nil)
	data := encodePNG(t, solidImage(48, color.RGBA{R: 170, G: 150, B: 140, A: 255}))

	first := engine.Analyze(context.Background(), data, domain.AnalysisHints{})
	second := engine.Analyze(context.Background(), data, domain.AnalysisHints{})
	assert.Equal(t, first, second)
}
