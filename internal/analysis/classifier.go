package analysis

import (
	"github.com/mansoorceksport/skinsight/internal/domain"
)

// RuleKind decides how a matching rule contributes to its category score
type RuleKind int

const (
	// RuleTier sets the category score; only the first matching tier rule counts
	RuleTier RuleKind = iota
	// RuleBonus adds to the category score whenever it matches
	RuleBonus
)

// Rule is one row of the classification table
type Rule struct {
	SkinType domain.SkinType
	Kind     RuleKind
	Points   int
	Name     string
	Match    func(f domain.ImageFeatures) bool
}

// CategoryOrder is the fixed evaluation order; on equal scores the earliest wins
var CategoryOrder = []domain.SkinType{
	domain.SkinTypeSensitive,
	domain.SkinTypeOily,
	domain.SkinTypeDry,
	domain.SkinTypeCombination,
	domain.SkinTypeNormal,
}

func between(v, lo, hi float64) bool { return v >= lo && v < hi }

// DefaultRules returns the tuned rule table. Bands are mostly disjoint in oiliness.
func DefaultRules() []Rule {
	return []Rule{
		{
			SkinType: domain.SkinTypeSensitive, Kind: RuleTier, Points: 100, Name: "low shine, dark",
			Match: func(f domain.ImageFeatures) bool {
				return f.OilinessLevel >= 1 && f.OilinessLevel <= 2.9 && f.AvgBrightness < 80
			},
		},
		{
			SkinType: domain.SkinTypeSensitive, Kind: RuleTier, Points: 70, Name: "low shine, dim",
			Match: func(f domain.ImageFeatures) bool {
				return f.OilinessLevel <= 3 && f.AvgBrightness < 85
			},
		},
		{
			SkinType: domain.SkinTypeOily, Kind: RuleTier, Points: 100, Name: "moderate shine",
			Match: func(f domain.ImageFeatures) bool { return between(f.OilinessLevel, 5, 8) },
		},
		{
			SkinType: domain.SkinTypeOily, Kind: RuleTier, Points: 80, Name: "moderate shine, wide",
			Match: func(f domain.ImageFeatures) bool { return between(f.OilinessLevel, 4, 8) },
		},
		{
			SkinType: domain.SkinTypeDry, Kind: RuleTier, Points: 100, Name: "high shine",
			Match: func(f domain.ImageFeatures) bool { return f.OilinessLevel >= 8 },
		},
		{
			SkinType: domain.SkinTypeDry, Kind: RuleTier, Points: 80, Name: "high shine, wide",
			Match: func(f domain.ImageFeatures) bool { return f.OilinessLevel >= 7 },
		},
		{
			SkinType: domain.SkinTypeCombination, Kind: RuleTier, Points: 100, Name: "mixed shine",
			Match: func(f domain.ImageFeatures) bool { return between(f.OilinessLevel, 3, 5) },
		},
		{
			SkinType: domain.SkinTypeCombination, Kind: RuleTier, Points: 70, Name: "mixed shine, wide",
			Match: func(f domain.ImageFeatures) bool { return between(f.OilinessLevel, 2.5, 5) },
		},
		{
			SkinType: domain.SkinTypeCombination, Kind: RuleBonus, Points: 30, Name: "mid brightness, rough",
			Match: func(f domain.ImageFeatures) bool {
				return f.AvgBrightness >= 85 && f.AvgBrightness <= 100 && f.TextureVariance >= 1000
			},
		},
		{
			SkinType: domain.SkinTypeNormal, Kind: RuleTier, Points: 100, Name: "healthy flush, bright",
			Match: func(f domain.ImageFeatures) bool {
				return f.RednessLevel >= 25 && f.AvgBrightness >= 100
			},
		},
		{
			SkinType: domain.SkinTypeNormal, Kind: RuleTier, Points: 70, Name: "healthy flush",
			Match: func(f domain.ImageFeatures) bool {
				return f.RednessLevel >= 20 && f.AvgBrightness >= 95
			},
		},
	}
}

// CategoryScore is the accumulated score of one category
type CategoryScore struct {
	SkinType domain.SkinType `json:"skinType"`
	Points   int             `json:"points"`
}

// Classifier scores features against a rule table
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier; nil rules means DefaultRules
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Scores evaluates every rule and returns one score per category in CategoryOrder
func (c *Classifier) Scores(f domain.ImageFeatures) []CategoryScore {
	points := make(map[domain.SkinType]int, len(CategoryOrder))
	tiered := make(map[domain.SkinType]bool, len(CategoryOrder))

	for _, rule := range c.rules {
		if rule.Kind == RuleTier && tiered[rule.SkinType] {
			continue
		}
		if !rule.Match(f) {
			continue
		}
		switch rule.Kind {
		case RuleTier:
			points[rule.SkinType] += rule.Points
			tiered[rule.SkinType] = true
		case RuleBonus:
			points[rule.SkinType] += rule.Points
		}
	}

	scores := make([]CategoryScore, 0, len(CategoryOrder))
	for _, st := range CategoryOrder {
		scores = append(scores, CategoryScore{SkinType: st, Points: points[st]})
	}
	return scores
}

// Classify picks the arg-max category. Ties go to the earliest category in
// CategoryOrder and an all-zero table resolves to normal.
func (c *Classifier) Classify(f domain.ImageFeatures) domain.SkinTypeResult {
	best := domain.SkinTypeNormal
	bestPoints := 0
	for _, s := range c.Scores(f) {
		if s.Points > bestPoints {
			best = s.SkinType
			bestPoints = s.Points
		}
	}

	return domain.SkinTypeResult{
		SkinType:   best,
		Confidence: Confidence(best, f),
	}
}

// Confidence estimates how sure the classifier is about skinType using secondary
// indicators. The result is always within [BaseConfidence, MaxConfidence].
func Confidence(skinType domain.SkinType, f domain.ImageFeatures) int {
	confidence := BaseConfidence

	switch skinType {
	case domain.SkinTypeOily:
		if f.OilinessLevel > 12 {
			confidence += 15
		}
		if f.AvgBrightness > 150 {
			confidence += 10
		}
	case domain.SkinTypeDry:
		if f.OilinessLevel >= 10 {
			confidence += 10
		}
		if f.TextureVariance > 800 {
			confidence += 10
		}
	case domain.SkinTypeSensitive:
		if f.RednessLevel > 15 {
			confidence += 15
		}
		if f.ColorUniformity < 60 {
			confidence += 5
		}
	case domain.SkinTypeCombination:
		if f.TextureVariance >= 1000 {
			confidence += 10
		}
		if f.AvgBrightness >= 85 && f.AvgBrightness <= 100 {
			confidence += 5
		}
	case domain.SkinTypeNormal:
		if f.ColorUniformity > 75 {
			confidence += 10
		}
		if f.TextureVariance < 500 {
			confidence += 5
		}
	}

	if f.PixelCount > LargeSamplePixels {
		confidence += LargeSampleBonus
	}
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}
	return confidence
}
