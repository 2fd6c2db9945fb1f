package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

// Metric names used in OutputScores
const (
	MetricHydration   = "hydration"
	MetricOiliness    = "oiliness"
	MetricPoreSize    = "poreSize"
	MetricTexture     = "texture"
	MetricSensitivity = "sensitivity"
	MetricAcne        = "acne"
	MetricEvenTone    = "evenTone"
	MetricFineLines   = "fineLines"
)

// Oiliness zones
const (
	ZoneTZone  = "tZone"
	ZoneCheeks = "cheeks"
)

// band is one description template; a score strictly above Above selects it
type band struct {
	Above int
	Text  string
}

var (
	hydrationBands = []band{
		{80, "Excellent hydration. Skin looks plump and well moisturized."},
		{60, "Good hydration with minor dry patches."},
		{40, "Moderate hydration. Skin would benefit from a richer moisturizer."},
		{-1, "Poor hydration. Skin appears dehydrated and may feel tight."},
	}
	oilinessBands = []band{
		{80, "Well balanced oil production."},
		{60, "Slight shine, mostly in the T-zone."},
		{40, "Noticeable shine across several areas."},
		{-1, "High oil production with visible shine."},
	}
	poreSizeBands = []band{
		{75, "Pores are small and barely visible."},
		{55, "Pores are visible in some areas."},
		{35, "Enlarged pores, especially around the nose."},
		{-1, "Pores are prominently enlarged."},
	}
	textureBands = []band{
		{80, "Smooth, even texture."},
		{60, "Mostly smooth with minor irregularities."},
		{40, "Uneven texture with some roughness."},
		{-1, "Rough texture with visible irregularities."},
	}
	sensitivityBands = []band{
		{80, "Low sensitivity. Skin tolerates most products well."},
		{60, "Mild sensitivity with occasional redness."},
		{40, "Moderate sensitivity. Introduce new products gradually."},
		{-1, "High sensitivity with visible redness or irritation."},
	}
)

func describe(score int, bands []band) string {
	for _, b := range bands {
		if score > b.Above {
			return b.Text
		}
	}
	return bands[len(bands)-1].Text
}

// clampScore rounds v and clamps it to [0,100]
func clampScore(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// MetricScores are the eight health scores derived from one photo, 0-100, higher is better
type MetricScores struct {
	Hydration   int
	Oiliness    int
	TZone       int
	Cheeks      int
	PoreSize    int
	Texture     int
	Sensitivity int
	Acne        int
	EvenTone    int
	FineLines   int
}

// ComputeScores derives the metric scores from features and the classified type
func ComputeScores(f domain.ImageFeatures, skinType domain.SkinType) MetricScores {
	typeAdj := 0.0
	switch skinType {
	case domain.SkinTypeDry:
		typeAdj = -20
	case domain.SkinTypeOily:
		typeAdj = 5
	}

	oiliness := 100 - f.OilinessLevel*4
	tZone, cheeks := oiliness, oiliness
	if skinType == domain.SkinTypeCombination {
		tZone -= 10
		cheeks += 15
	}

	return MetricScores{
		Hydration:   clampScore(f.ColorUniformity*0.6 + (100-f.TextureVariance/30)*0.4 + typeAdj),
		Oiliness:    clampScore(oiliness),
		TZone:       clampScore(tZone),
		Cheeks:      clampScore(cheeks),
		PoreSize:    clampScore(100 - f.TextureVariance/25 - f.OilinessLevel*2),
		Texture:     clampScore(100 - math.Sqrt(f.TextureVariance)*1.5),
		Sensitivity: clampScore(100 - f.RednessLevel*1.5 - (100-f.ColorUniformity)*0.3),
		Acne:        clampScore(100 - f.RednessLevel*1.2 - f.OilinessLevel*3),
		EvenTone:    clampScore(f.ColorUniformity),
		FineLines:   clampScore(100 - f.TextureVariance/40),
	}
}

// BuildReport turns features and the classifier result into a full report.
// It is a pure function: the same inputs always produce the same report.
func BuildReport(f domain.ImageFeatures, result domain.SkinTypeResult, hints domain.AnalysisHints) *domain.AnalysisReport {
	return reportFromScores(ComputeScores(f, result.SkinType), result, hints)
}

// FallbackReport is the fixed neutral report used when a photo cannot be analyzed
func FallbackReport(reason string) *domain.AnalysisReport {
	scores := MetricScores{
		Hydration:   65,
		Oiliness:    60,
		TZone:       60,
		Cheeks:      60,
		PoreSize:    60,
		Texture:     65,
		Sensitivity: 70,
		Acne:        65,
		EvenTone:    60,
		FineLines:   70,
	}
	report := reportFromScores(scores, domain.SkinTypeResult{
		SkinType:   domain.SkinTypeNormal,
		Confidence: FallbackConfidence,
	}, domain.AnalysisHints{})

	report.Recommendations = append(report.Recommendations,
		"Retake the photo facing a window in even daylight for a more precise result")
	report.Fallback = true
	report.FallbackReason = reason
	return report
}

func reportFromScores(s MetricScores, result domain.SkinTypeResult, hints domain.AnalysisHints) *domain.AnalysisReport {
	return &domain.AnalysisReport{
		SkinType:   result.SkinType,
		Confidence: result.Confidence,
		Analysis: domain.SkinAnalysis{
			Oiliness: domain.MetricAnalysis{
				Score:       s.Oiliness,
				Description: describe(s.Oiliness, oilinessBands),
				Zones:       map[string]int{ZoneTZone: s.TZone, ZoneCheeks: s.Cheeks},
			},
			PoreSize:    domain.MetricAnalysis{Score: s.PoreSize, Description: describe(s.PoreSize, poreSizeBands)},
			Texture:     domain.MetricAnalysis{Score: s.Texture, Description: describe(s.Texture, textureBands)},
			Sensitivity: domain.MetricAnalysis{Score: s.Sensitivity, Description: describe(s.Sensitivity, sensitivityBands)},
			Hydration:   domain.MetricAnalysis{Score: s.Hydration, Description: describe(s.Hydration, hydrationBands)},
		},
		Recommendations: Recommendations(result.SkinType, s, hints),
		Scores:          OutputScores(s),
	}
}

// OutputScores converts metric scores into banded OutputScores, worst first
func OutputScores(s MetricScores) []domain.OutputScore {
	named := []struct {
		name  string
		value int
	}{
		{MetricHydration, s.Hydration},
		{MetricOiliness, s.Oiliness},
		{MetricPoreSize, s.PoreSize},
		{MetricTexture, s.Texture},
		{MetricSensitivity, s.Sensitivity},
		{MetricAcne, s.Acne},
		{MetricEvenTone, s.EvenTone},
		{MetricFineLines, s.FineLines},
	}

	scores := make([]domain.OutputScore, 0, len(named))
	for _, n := range named {
		scores = append(scores, domain.OutputScore{
			Name:  n.name,
			Value: n.value,
			Color: domain.ColorForValue(n.value),
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value < scores[j].Value
	})
	return scores
}

// Recommendations builds the routine advice list: a base set, then bullets gated on type and scores
func Recommendations(skinType domain.SkinType, s MetricScores, hints domain.AnalysisHints) []string {
	recs := []string{
		"Apply a broad-spectrum SPF 30+ sunscreen every morning, even on cloudy days",
		"Keep a consistent routine: cleanse, treat, moisturize, protect",
	}

	switch skinType {
	case domain.SkinTypeOily:
		recs = append(recs,
			"Use a gentle foaming cleanser twice a day",
			"Choose oil-free, non-comedogenic moisturizers",
			"Add niacinamide to help regulate sebum",
		)
		if s.Acne < 40 {
			recs = append(recs,
				"Use a salicylic acid (BHA) exfoliant 2-3 times a week to clear pores",
				"Spot treat breakouts with 2.5% benzoyl peroxide",
			)
		}
	case domain.SkinTypeDry:
		recs = append(recs,
			"Use a cream or oil-based cleanser that does not strip the skin",
			"Layer a hyaluronic acid serum under a ceramide-rich moisturizer",
			"Avoid hot water and fragranced products",
		)
	case domain.SkinTypeSensitive:
		recs = append(recs,
			"Stick to fragrance-free, minimal-ingredient products",
			"Patch test new products on the inner arm for 48 hours",
			"Look for soothing ingredients such as centella asiatica and oat",
		)
	case domain.SkinTypeCombination:
		recs = append(recs,
			"Use a lightweight gel moisturizer on the T-zone and a richer cream on the cheeks",
			"Apply a clay mask to the T-zone once a week",
		)
	default:
		recs = append(recs,
			"Maintain your routine with a gentle cleanser and a light moisturizer",
			"Exfoliate gently once or twice a week",
		)
	}

	if s.Hydration <= 40 && skinType != domain.SkinTypeDry {
		recs = append(recs, "Drink enough water and add a hydrating serum to your routine")
	}
	if s.Sensitivity <= 40 && skinType != domain.SkinTypeSensitive {
		recs = append(recs, "Reduce active ingredients until the redness settles")
	}

	if matureAgeRange(hints.AgeRange) {
		recs = append(recs, "Introduce a retinol serum at night, starting twice a week")
	}
	return recs
}

// matureAgeRange reports whether a free-form age range starts at 30 or above
func matureAgeRange(ageRange string) bool {
	ageRange = strings.TrimSpace(ageRange)
	if ageRange == "" {
		return false
	}
	digits := 0
	start := 0
	for _, r := range ageRange {
		if r < '0' || r > '9' {
			break
		}
		start = start*10 + int(r-'0')
		digits++
	}
	return digits > 0 && start >= 30
}
