package domain

import (
	"context"
	"regexp"
	"time"
)

// MaxSessionIDLength bounds client-supplied session ids
const MaxSessionIDLength = 64

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSessionID reports whether id is safe to use as a storage key segment
func ValidSessionID(id string) bool {
	return len(id) <= MaxSessionIDLength && sessionIDPattern.MatchString(id)
}

// UserInfo is what the questionnaire collected about the user
type UserInfo struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender   string `bson:"gender,omitempty" json:"gender,omitempty"`
	AgeRange string `bson:"age_range,omitempty" json:"ageRange,omitempty"`
}

// AnalysisSession is the persisted per-session blob
type AnalysisSession struct {
	ID                     string                  `bson:"_id" json:"id"`
	Scores                 []OutputScore           `bson:"scores" json:"scores"`
	Recommendations        []string                `bson:"recommendations" json:"recommendations"`
	UserInfo               UserInfo                `bson:"user_info" json:"userInfo"`
	AIResult               *AnalysisReport         `bson:"ai_result" json:"aiResult"`
	ProductRecommendations []ProductRecommendation `bson:"product_recommendations" json:"productRecommendations"`

	// Exactly one of ImageURL and UserImage is set
	ImageURL  string `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	UserImage string `bson:"user_image,omitempty" json:"userImage,omitempty"`

	Paid      bool      `bson:"paid" json:"paid"`
	PaidAt    time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// AnalysisRequest carries one submitted photo
type AnalysisRequest struct {
	SessionID string
	ImageData []byte
	UserInfo  UserInfo
}

// SessionRepository persists analysis sessions
type SessionRepository interface {
	// Save inserts or replaces the session by ID (last writer wins). Paid and
	// PaidAt are never cleared by a save; session is updated with the stored values.
	Save(ctx context.Context, session *AnalysisSession) error
	GetByID(ctx context.Context, id string) (*AnalysisSession, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

// CacheRepository caches session blobs.
// Writes are last-writer-wins.
type CacheRepository interface {
	// SetSession caches a session blob with TTL
	SetSession(ctx context.Context, session *AnalysisSession, ttl time.Duration) error

	// GetSession returns nil, nil on a miss
	GetSession(ctx context.Context, id string) (*AnalysisSession, error)

	InvalidateSession(ctx context.Context, id string) error
}

// AnalysisService is the business logic around a submitted photo
type AnalysisService interface {
	// ProcessAnalysis runs the engine, matches products, then persists and caches the session
	ProcessAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisSession, error)

	// GetSession reads through the cache
	GetSession(ctx context.Context, id string) (*AnalysisSession, error)

	Recommend(scores []OutputScore) []ProductRecommendation
	Products(issue string) []EnhancedProduct
}
