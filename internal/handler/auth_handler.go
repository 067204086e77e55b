package handler

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/celltrack/celltrack-backend-go/internal/config"
	"github.com/celltrack/celltrack-backend-go/pkg/response"
)

// tokenTTL bounds how long an issued API token stays valid
const tokenTTL = 12 * time.Hour

// AuthHandler issues API tokens in exchange for the configured access key
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// IssueToken handles POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		AccessKey string `json:"access_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "access_key is required")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(h.cfg.AuthAccessKey)) != 1 {
		response.Unauthorized(c, "Invalid access key")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "api-client",
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		response.InternalError(c, "Failed to issue token")
		return
	}

	response.Success(c, gin.H{"token": signed, "expires_in": int(tokenTTL.Seconds())})
}
