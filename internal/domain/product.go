package domain

import "context"

// TreatmentType is the role a recommendation plays in a routine
type TreatmentType string

const (
	TreatmentPrimary     TreatmentType = "primary"
	TreatmentSecondary   TreatmentType = "secondary"
	TreatmentMaintenance TreatmentType = "maintenance"
)

// EnhancedProduct is a curated catalog entry
type EnhancedProduct struct {
	ID           string   `bson:"_id" json:"id" yaml:"id"`
	Name         string   `bson:"name" json:"name" yaml:"name"`
	Brand        string   `bson:"brand" json:"brand" yaml:"brand"`
	Category     string   `bson:"category" json:"category" yaml:"category"`
	TargetIssues []string `bson:"target_issues" json:"targetIssues" yaml:"targetIssues"`
	Ingredients  []string `bson:"ingredients" json:"ingredients" yaml:"ingredients"`
	PriceRange   string   `bson:"price_range" json:"priceRange" yaml:"priceRange"`
	ImageURL     string   `bson:"image_url" json:"imageUrl" yaml:"imageUrl"`
	PurchaseURL  string   `bson:"purchase_url" json:"purchaseUrl" yaml:"purchaseUrl"`
	Description  string   `bson:"description" json:"description" yaml:"description"`
	SuitableFor  []string `bson:"suitable_for" json:"suitableFor" yaml:"suitableFor"`
	HowToUse     string   `bson:"how_to_use" json:"howToUse" yaml:"howToUse"`
	Source       string   `bson:"source" json:"source" yaml:"source"`
}

// ProductRecommendation is the set of products picked for one issue
type ProductRecommendation struct {
	IssueTargeted string            `bson:"issue_targeted" json:"issueTargeted"`
	Severity      Severity          `bson:"severity" json:"severity"`
	Products      []EnhancedProduct `bson:"products" json:"products"`
	TreatmentType TreatmentType     `bson:"treatment_type" json:"treatmentType"`
}

// ProductMatcher maps output scores to catalog recommendations
type ProductMatcher interface {
	Match(scores []OutputScore) []ProductRecommendation
	Products() []EnhancedProduct

	// ProductsFor accepts an issue key or any of its aliases
	ProductsFor(issue string) []EnhancedProduct
}

// ProductRepository persists the catalog override
type ProductRepository interface {
	// List returns every product, in insertion order
	List(ctx context.Context) ([]EnhancedProduct, error)

	// UpsertMany inserts or replaces products by ID
	UpsertMany(ctx context.Context, products []EnhancedProduct) error
}
