package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/analysis"
	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/matcher"
)

// Runs the analysis engine on local photos and prints the report as JSON.
// Handy for retuning thresholds against reference images.
//
//	go run ./cmd/analyze -age 25-34 -products face.jpg
func main() {
	gender := flag.String("gender", "", "gender hint")
	age := flag.String("age", "", "age range hint, e.g. 25-34")
	resolution := flag.Int("resolution", analysis.DefaultThresholds().Resolution, "normalisation resolution")
	step := flag.Int("step", analysis.DefaultThresholds().SampleStep, "sampling step in pixels")
	withProducts := flag.Bool("products", false, "include product recommendations")
	features := flag.Bool("features", false, "include raw image features and category scores")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(level, "console")
	defer func() { _ = log.Sync() }()

	thresholds := analysis.DefaultThresholds()
	thresholds.Resolution = *resolution
	thresholds.SampleStep = *step
	engine := analysis.NewEngine(thresholds, log)

	var m *matcher.Matcher
	if *withProducts {
		catalog, err := matcher.DefaultCatalog()
		if err != nil {
			log.Fatal("failed to load catalog", zap.Error(err))
		}
		m = matcher.New(catalog, log)
	}

	hints := domain.AnalysisHints{Gender: *gender, AgeRange: *age}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	exit := 0
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read image", zap.String("path", path), zap.Error(err))
			exit = 1
			continue
		}

		out := result{File: path, Report: engine.Analyze(context.Background(), data, hints)}
		if m != nil {
			out.Products = m.Match(out.Report.Scores)
		}
		if *features {
			out.Features, out.Categories = inspect(data, thresholds)
		}

		if err := enc.Encode(out); err != nil {
			log.Fatal("failed to write report", zap.Error(err))
		}
	}
	os.Exit(exit)
}

type result struct {
	File       string                         `json:"file"`
	Report     *domain.AnalysisReport         `json:"report"`
	Products   []domain.ProductRecommendation `json:"products,omitempty"`
	Features   *domain.ImageFeatures          `json:"features,omitempty"`
	Categories []analysis.CategoryScore       `json:"categories,omitempty"`
}

// inspect reruns the first two stages to expose what the classifier saw
func inspect(data []byte, thresholds analysis.Thresholds) (*domain.ImageFeatures, []analysis.CategoryScore) {
	img, err := analysis.LoadImage(data, thresholds.Resolution)
	if err != nil {
		return nil, nil
	}
	f, err := analysis.ExtractFeatures(img, thresholds)
	if err != nil {
		return nil, nil
	}
	return &f, analysis.NewClassifier(nil).Scores(f)
}
