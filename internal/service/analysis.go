package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/repository"
)

// SkinAnalysisService implements domain.AnalysisService
type SkinAnalysisService struct {
	analyzer       domain.SkinAnalyzer
	matcher        domain.ProductMatcher
	sessions       domain.SessionRepository
	cache          domain.CacheRepository
	fileRepository domain.FileRepository // nil keeps photos inline on the session
	sessionTTL     time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewSkinAnalysisService creates a new analysis service
func NewSkinAnalysisService(
	analyzer domain.SkinAnalyzer,
	matcher domain.ProductMatcher,
	sessions domain.SessionRepository,
	cache domain.CacheRepository,
	fileRepository domain.FileRepository,
	sessionTTL time.Duration,
	log *zap.Logger,
) *SkinAnalysisService {
	return &SkinAnalysisService{
		analyzer:       analyzer,
		matcher:        matcher,
		sessions:       sessions,
		cache:          cache,
		fileRepository: fileRepository,
		sessionTTL:     sessionTTL,
		logger:         logger.OrNop(log),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ProcessAnalysis runs the whole workflow for one photo. Reusing a session id
// replaces that session's analysis (a retake) and keeps its payment state.
func (s *SkinAnalysisService) ProcessAnalysis(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisSession, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = ulid.Make().String()
	} else if !domain.ValidSessionID(sessionID) {
		return nil, fmt.Errorf("%w: session id must be at most %d letters, digits, '-' or '_'",
			domain.ErrInvalidPayload, domain.MaxSessionIDLength)
	}
	now := s.now()
	contentType, ext := domain.SniffImageType(req.ImageData)

	var (
		report   *domain.AnalysisReport
		imageURL string
	)

	// Step 1: upload the photo while the engine runs
	g, gCtx := errgroup.WithContext(ctx)
	if s.fileRepository != nil {
		g.Go(func() error {
			url, err := s.fileRepository.Upload(gCtx, req.ImageData, repository.PhotoKey(sessionID, ext, now), contentType)
			if err != nil {
				return fmt.Errorf("failed to upload image: %w", err)
			}
			imageURL = url
			return nil
		})
	}
	g.Go(func() error {
		report = s.analyzer.Analyze(gCtx, req.ImageData, domain.AnalysisHints{
			Gender:   req.UserInfo.Gender,
			AgeRange: req.UserInfo.AgeRange,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Step 2: match products against the worst scores
	session := &domain.AnalysisSession{
		ID:                     sessionID,
		Scores:                 report.Scores,
		Recommendations:        report.Recommendations,
		UserInfo:               req.UserInfo,
		AIResult:               report,
		ProductRecommendations: s.matcher.Match(report.Scores),
		ImageURL:               imageURL,
		CreatedAt:              now,
	}
	if s.fileRepository == nil {
		session.UserImage = DataURL(contentType, req.ImageData)
	}

	// Step 3: save to MongoDB
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	// Step 4: cache; a cache failure does not fail the request
	if err := s.cache.SetSession(ctx, session, s.sessionTTL); err != nil {
		s.logger.Warn("failed to cache session", zap.String("session_id", session.ID), zap.Error(err))
	}

	s.logger.Info("analysis processed",
		zap.String("session_id", session.ID),
		zap.String("skin_type", string(report.SkinType)),
		zap.Int("confidence", report.Confidence),
		zap.Bool("fallback", report.Fallback),
		zap.Int("recommendations", len(session.ProductRecommendations)),
	)
	return session, nil
}

// GetSession reads through the cache and repopulates it on a miss
func (s *SkinAnalysisService) GetSession(ctx context.Context, id string) (*domain.AnalysisSession, error) {
	cached, err := s.cache.GetSession(ctx, id)
	if err != nil {
		s.logger.Warn("session cache read failed", zap.String("session_id", id), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSession(ctx, session, s.sessionTTL); err != nil {
		s.logger.Warn("failed to cache session", zap.String("session_id", id), zap.Error(err))
	}
	return session, nil
}

// Recommend matches arbitrary output scores against the catalog
func (s *SkinAnalysisService) Recommend(scores []domain.OutputScore) []domain.ProductRecommendation {
	return s.matcher.Match(scores)
}

// Products lists the catalog, or the products targeting issue when it is set
func (s *SkinAnalysisService) Products(issue string) []domain.EnhancedProduct {
	if issue == "" {
		return s.matcher.Products()
	}
	return s.matcher.ProductsFor(issue)
}

// DataURL encodes an image inline as a base64 data URL
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
