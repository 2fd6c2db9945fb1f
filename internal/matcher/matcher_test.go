package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

func newDefaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return New(catalog, nil)
}

func productIDs(products []domain.EnhancedProduct) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name  string
		score domain.OutputScore
		want  domain.Severity
	}{
		{"red band wins over value", domain.OutputScore{Value: 75, Color: domain.ScoreColorRed}, domain.SeverityHigh},
		{"low value without color", domain.OutputScore{Value: 39}, domain.SeverityHigh},
		{"orange band wins over value", domain.OutputScore{Value: 90, Color: domain.ScoreColorOrange}, domain.SeverityMedium},
		{"mid value without color", domain.OutputScore{Value: 45}, domain.SeverityMedium},
		{"boundary 69", domain.OutputScore{Value: 69, Color: domain.ScoreColorGreen}, domain.SeverityMedium},
		{"boundary 70", domain.OutputScore{Value: 70, Color: domain.ScoreColorGreen}, domain.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Severity(tt.score))
		})
	}
}

func TestMatch_HydrationMapsToDehydration(t *testing.T) {
	m := newDefaultMatcher(t)

	recs := m.Match([]domain.OutputScore{{Name: "hydration", Value: 45, Color: domain.ScoreColorOrange}})
	require.Len(t, recs, 1)

	assert.Equal(t, "dehydration", recs[0].IssueTargeted)
	assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
	assert.Equal(t, domain.TreatmentPrimary, recs[0].TreatmentType)
}

func TestMatch_RanksByKeywordHitsAndCapsProducts(t *testing.T) {
	m := newDefaultMatcher(t)

	recs := m.Match([]domain.OutputScore{{Name: "hydration", Value: 45, Color: domain.ScoreColorOrange}})
	require.Len(t, recs, 1)

	// six products target dehydration; the two with fewer keyword hits are cut
	assert.Equal(t, []string{
		"cerave-hydrating-cleanser",
		"the-ordinary-hyaluronic-acid",
		"cerave-moisturizing-cream",
		"cerave-sa-smoothing-cream",
	}, productIDs(recs[0].Products))
}

func TestMatch_TopThreeBySeverityThenScore(t *testing.T) {
	m := newDefaultMatcher(t)

	recs := m.Match([]domain.OutputScore{
		{Name: "hydration", Value: 45, Color: domain.ScoreColorOrange},
		{Name: "sensitivity", Value: 30, Color: domain.ScoreColorRed},
		{Name: "acne", Value: 55, Color: domain.ScoreColorRed},
		{Name: "fineLines", Value: 95, Color: domain.ScoreColorGreen},
		{Name: "evenTone", Value: 65, Color: domain.ScoreColorOrange},
	})
	require.Len(t, recs, 3)

	assert.Equal(t, "sensitivity", recs[0].IssueTargeted)
	assert.Equal(t, domain.TreatmentPrimary, recs[0].TreatmentType)
	assert.Equal(t, "acne", recs[1].IssueTargeted)
	assert.Equal(t, domain.TreatmentSecondary, recs[1].TreatmentType)
	assert.Equal(t, "dehydration", recs[2].IssueTargeted)
	assert.Equal(t, domain.TreatmentMaintenance, recs[2].TreatmentType)

	for _, r := range recs {
		assert.LessOrEqual(t, len(r.Products), MaxProductsPerIssue)
		for _, p := range r.Products {
			assert.Contains(t, p.TargetIssues, r.IssueTargeted)
		}
	}
}

func TestMatch_DropsIssuesWithoutProducts(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
aliases:
  hydration: { issue: dehydration, category: hydration }
  darkCircles: { issue: dark_circles, category: pigmentation }
keywords:
  dehydration: [glycerin]
products:
  - id: gel
    name: Gel
    targetIssues: [dehydration]
    ingredients: [glycerin]
`))
	require.NoError(t, err)
	m := New(catalog, nil)

	recs := m.Match([]domain.OutputScore{
		{Name: "darkCircles", Value: 10, Color: domain.ScoreColorRed},
		{Name: "hydration", Value: 50, Color: domain.ScoreColorRed},
	})

	require.Len(t, recs, 1)
	assert.Equal(t, "dehydration", recs[0].IssueTargeted)
	assert.Equal(t, domain.TreatmentSecondary, recs[0].TreatmentType, "rank is kept from the issue list")
}

func TestMatch_Empty(t *testing.T) {
	m := newDefaultMatcher(t)
	assert.Empty(t, m.Match(nil))
}

func TestIssues_AliasesCollapseToWorst(t *testing.T) {
	m := newDefaultMatcher(t)

	issues := m.Issues([]domain.OutputScore{
		{Name: "hydration", Value: 70, Color: domain.ScoreColorOrange},
		{Name: "Moisture", Value: 30, Color: domain.ScoreColorRed},
		{Name: "pore_size", Value: 50, Color: domain.ScoreColorRed},
	})

	require.Len(t, issues, 2)
	assert.Equal(t, domain.SkinIssue{Name: "dehydration", Severity: domain.SeverityHigh, Score: 30, Category: domain.CategoryHydration}, issues[0])
	assert.Equal(t, "enlarged_pores", issues[1].Name)
}

func TestCatalog_Resolve(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	tests := []struct {
		name     string
		issue    string
		category domain.IssueCategory
	}{
		{"poreSize", "enlarged_pores", domain.CategoryTexture},
		{"Pore Size", "enlarged_pores", domain.CategoryTexture},
		{"evenTone", "hyperpigmentation", domain.CategoryPigmentation},
		{"fine-lines", "fine_lines", domain.CategoryAging},
		{"Dark Circles", "dark_circles", domain.CategoryTexture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := catalog.Resolve(tt.name)
			assert.Equal(t, tt.issue, a.Issue)
			assert.Equal(t, tt.category, a.Category)
		})
	}
}

func TestDefaultCatalog_Consistent(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Products)

	for _, p := range catalog.Products {
		assert.NotEmpty(t, p.Name, p.ID)
		assert.NotEmpty(t, p.Ingredients, p.ID)
		for _, issue := range p.TargetIssues {
			assert.Contains(t, catalog.Keywords, issue, "product %s targets an issue without keywords", p.ID)
		}
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "products: [unclosed"},
		{"missing id", "products:\n  - name: x\n    targetIssues: [acne]\n"},
		{"duplicate id", "products:\n  - id: a\n    targetIssues: [acne]\n  - id: a\n    targetIssues: [acne]\n"},
		{"no target issues", "products:\n  - id: a\n"},
		{"alias without issue", "aliases:\n  acne: { category: texture }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestProductsFor(t *testing.T) {
	m := newDefaultMatcher(t)

	byAlias := m.ProductsFor("hydration")
	byKey := m.ProductsFor("dehydration")
	assert.Equal(t, productIDs(byKey), productIDs(byAlias))
	assert.Len(t, byKey, 6)

	assert.Empty(t, m.ProductsFor("dark circles"))
}

func TestKeywordHits(t *testing.T) {
	assert.Equal(t, 2, KeywordHits([]string{"Salicylic Acid", "Niacinamide"}, []string{"niacinamide", "salicylic acid", "zinc"}))
	assert.Equal(t, 1, KeywordHits([]string{"hyaluronic acid", "sodium hyaluronate"}, []string{"hyaluronic acid"}))
	assert.Zero(t, KeywordHits(nil, []string{"retinol"}))
}
