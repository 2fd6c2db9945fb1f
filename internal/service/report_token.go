package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

const reportTokenIssuer = "skinsight"

// ReportTokenService signs and validates report links
type ReportTokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewReportTokenService creates a new token service
func NewReportTokenService(secret string, ttl time.Duration) *ReportTokenService {
	return &ReportTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns an HS256 token for sessionID and its expiry
func (s *ReportTokenService) Generate(sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := domain.ReportClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    reportTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign report token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a token and returns its session id
func (s *ReportTokenService) Parse(tokenString string) (string, error) {
	claims := &domain.ReportClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(reportTokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return "", domain.ErrInvalidToken
	}
	if !token.Valid || claims.SessionID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.SessionID, nil
}
