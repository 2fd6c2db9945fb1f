package analysis

import (
	"context"
	"errors"
	"image"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/metrics"
)

const tracerName = "skin-analysis"

// Fallback reasons recorded on the report
const (
	FallbackDecode     = "decode_failure"
	FallbackExtraction = "extraction_failure"
)

// Engine runs loader -> extractor -> classifier -> report builder.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	classifier *Classifier
	logger     *zap.Logger
}

// NewEngine creates an engine with the given thresholds and the default rule table
func NewEngine(thresholds Thresholds, log *zap.Logger) *Engine {
	return &Engine{
		thresholds: thresholds,
		classifier: NewClassifier(nil),
		logger:     logger.OrNop(log),
	}
}

// Analyze never returns an error: decode and extraction failures yield FallbackReport
func (e *Engine) Analyze(ctx context.Context, imageData []byte, hints domain.AnalysisHints) *domain.AnalysisReport {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	start := time.Now()
	report, err := e.run(ctx, imageData, hints)
	if err != nil {
		reason := FallbackExtraction
		if errors.Is(err, ErrDecodeFailure) {
			reason = FallbackDecode
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		e.logger.Warn("image analysis failed, using fallback report",
			zap.String("reason", reason),
			zap.Int("bytes", len(imageData)),
			zap.Error(err),
		)
		report = FallbackReport(reason)
	}

	metrics.SkinAnalysisDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	metrics.SkinAnalyses.WithLabelValues(string(report.SkinType), strconv.FormatBool(report.Fallback)).Inc()

	span.SetAttributes(
		attribute.String("skin.type", string(report.SkinType)),
		attribute.Int("skin.confidence", report.Confidence),
		attribute.Bool("skin.fallback", report.Fallback),
	)
	return report
}

func (e *Engine) run(ctx context.Context, imageData []byte, hints domain.AnalysisHints) (*domain.AnalysisReport, error) {
	img, err := stage(ctx, "decode", func() (*image.RGBA, error) {
		return LoadImage(imageData, e.thresholds.Resolution)
	})
	if err != nil {
		return nil, err
	}

	features, err := stage(ctx, "extract", func() (domain.ImageFeatures, error) {
		return ExtractFeatures(img, e.thresholds)
	})
	if err != nil {
		return nil, err
	}

	result := e.classifier.Classify(features)
	e.logger.Debug("skin type classified",
		zap.String("skin_type", string(result.SkinType)),
		zap.Int("confidence", result.Confidence),
		zap.Float64("oiliness", features.OilinessLevel),
		zap.Float64("brightness", features.AvgBrightness),
		zap.Int("pixels", features.PixelCount),
	)

	return BuildReport(features, result, hints), nil
}

// stage wraps fn in a child span and records its duration
func stage[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "analysis."+name)
	defer span.End()

	start := time.Now()
	v, err := fn()
	metrics.SkinAnalysisDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}
