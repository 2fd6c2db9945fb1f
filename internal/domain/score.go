package domain

// ScoreColor is the traffic-light severity band of an OutputScore
type ScoreColor string

const (
	ScoreColorRed    ScoreColor = "RED"
	ScoreColorOrange ScoreColor = "ORANGE"
	ScoreColorGreen  ScoreColor = "GREEN"
)

// Band thresholds, inclusive upper bounds
const (
	RedBandMax    = 60
	OrangeBandMax = 80
)

// Label returns the user-facing text of the band
func (c ScoreColor) Label() string {
	switch c {
	case ScoreColorRed:
		return "needs attention"
	case ScoreColorOrange:
		return "average"
	case ScoreColorGreen:
		return "good"
	default:
		return ""
	}
}

// ColorForValue maps a 0-100 score to its band
func ColorForValue(value int) ScoreColor {
	switch {
	case value <= RedBandMax:
		return ScoreColorRed
	case value <= OrangeBandMax:
		return ScoreColorOrange
	default:
		return ScoreColorGreen
	}
}

// OutputScore is a named metric plus its severity band
type OutputScore struct {
	Name  string     `bson:"name" json:"name"`
	Value int        `bson:"value" json:"value"`
	Color ScoreColor `bson:"color" json:"color"`
}

// Severity of a skin issue
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities, higher is worse
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// IssueCategory groups issues for display
type IssueCategory string

const (
	CategoryPigmentation IssueCategory = "pigmentation"
	CategoryAging        IssueCategory = "aging"
	CategoryTexture      IssueCategory = "texture"
	CategoryHydration    IssueCategory = "hydration"
	CategorySensitivity  IssueCategory = "sensitivity"
)

// SkinIssue is an OutputScore normalized to a canonical issue key
type SkinIssue struct {
	Name     string        `bson:"name" json:"name"`
	Severity Severity      `bson:"severity" json:"severity"`
	Score    int           `bson:"score" json:"score"`
	Category IssueCategory `bson:"category" json:"category"`
}
