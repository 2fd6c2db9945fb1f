package matcher

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/metrics"
)

const (
	// MaxIssues is how many prioritized issues get recommendations
	MaxIssues = 3
	// MaxProductsPerIssue caps each recommendation
	MaxProductsPerIssue = 4
)

var treatmentByRank = []domain.TreatmentType{
	domain.TreatmentPrimary,
	domain.TreatmentSecondary,
	domain.TreatmentMaintenance,
}

// Matcher implements domain.ProductMatcher over a Catalog
type Matcher struct {
	catalog *Catalog
	logger  *zap.Logger
}

// New creates a matcher
func New(catalog *Catalog, log *zap.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		logger:  logger.OrNop(log),
	}
}

// Severity applies the band rule: RED or <40 is high, ORANGE or <70 is medium
func Severity(score domain.OutputScore) domain.Severity {
	switch {
	case score.Color == domain.ScoreColorRed || score.Value < 40:
		return domain.SeverityHigh
	case score.Color == domain.ScoreColorOrange || score.Value < 70:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Issues normalizes scores into skin issues, most severe first.
// When several scores resolve to the same issue the worst one is kept.
func (m *Matcher) Issues(scores []domain.OutputScore) []domain.SkinIssue {
	byName := make(map[string]int, len(scores))
	issues := make([]domain.SkinIssue, 0, len(scores))

	for _, s := range scores {
		alias := m.catalog.Resolve(s.Name)
		issue := domain.SkinIssue{
			Name:     alias.Issue,
			Severity: Severity(s),
			Score:    s.Value,
			Category: alias.Category,
		}

		if i, ok := byName[issue.Name]; ok {
			if worse(issue, issues[i]) {
				issues[i] = issue
			}
			continue
		}
		byName[issue.Name] = len(issues)
		issues = append(issues, issue)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return worse(issues[i], issues[j])
	})
	return issues
}

// worse orders by severity desc, then raw score asc
func worse(a, b domain.SkinIssue) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() > b.Severity.Rank()
	}
	return a.Score < b.Score
}

// Match returns recommendations for the top issues. Issues without products are dropped.
func (m *Matcher) Match(scores []domain.OutputScore) []domain.ProductRecommendation {
	issues := m.Issues(scores)
	if len(issues) > MaxIssues {
		issues = issues[:MaxIssues]
	}

	recs := make([]domain.ProductRecommendation, 0, len(issues))
	for rank, issue := range issues {
		products := m.rank(issue.Name)
		if len(products) == 0 {
			m.logger.Debug("no products for issue", zap.String("issue", issue.Name))
			continue
		}
		if len(products) > MaxProductsPerIssue {
			products = products[:MaxProductsPerIssue]
		}

		metrics.ProductMatches.WithLabelValues(issue.Name).Inc()
		recs = append(recs, domain.ProductRecommendation{
			IssueTargeted: issue.Name,
			Severity:      issue.Severity,
			Products:      products,
			TreatmentType: treatmentByRank[rank],
		})
	}
	return recs
}

// rank filters products targeting issue and orders them by keyword hits, catalog order on ties
func (m *Matcher) rank(issue string) []domain.EnhancedProduct {
	keywords := m.catalog.Keywords[issue]

	type hit struct {
		product domain.EnhancedProduct
		hits    int
	}
	var candidates []hit
	for _, p := range m.catalog.Products {
		if !targets(p, issue) {
			continue
		}
		candidates = append(candidates, hit{product: p, hits: KeywordHits(p.Ingredients, keywords)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].hits > candidates[j].hits
	})

	products := make([]domain.EnhancedProduct, 0, len(candidates))
	for _, c := range candidates {
		products = append(products, c.product)
	}
	return products
}

// KeywordHits counts keywords found in any ingredient, case-insensitively
func KeywordHits(ingredients, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, ing := range ingredients {
			if strings.Contains(strings.ToLower(ing), kw) {
				hits++
				break
			}
		}
	}
	return hits
}

func targets(p domain.EnhancedProduct, issue string) bool {
	for _, t := range p.TargetIssues {
		if t == issue {
			return true
		}
	}
	return false
}

// Products returns the full catalog
func (m *Matcher) Products() []domain.EnhancedProduct {
	return m.catalog.Products
}

// ProductsFor returns the catalog entries targeting issue, ranked. The issue
// may be given as any alias, e.g. "hydration" for "dehydration".
func (m *Matcher) ProductsFor(issue string) []domain.EnhancedProduct {
	return m.rank(m.catalog.Resolve(issue).Issue)
}
