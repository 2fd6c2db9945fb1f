package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// ReportClaims are the claims of a signed report link
type ReportClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}
