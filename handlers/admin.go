package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/utils"
)

// AdminHandler exchanges the configured admin credentials for a bearer
// token. An empty PasswordHash disables login.
type AdminHandler struct {
	Tokens       *utils.TokenIssuer
	Username     string
	PasswordHash string
	TTL          time.Duration
}

func NewAdminHandler(tokens *utils.TokenIssuer, username, passwordHash string, ttl time.Duration) *AdminHandler {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminHandler{Tokens: tokens, Username: username, PasswordHash: passwordHash, TTL: ttl}
}

func (h *AdminHandler) LoginHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload", err.Error())
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		utils.AbortWithError(c, "Login failed", err)
		return
	}

	if !h.authenticate(req.Username, req.Password) {
		logger.Warn("Admin login rejected", zap.String("username", req.Username))
		utils.JSONError(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Login failed", "invalid credentials")
		return
	}

	token, err := h.Tokens.GenerateToken(req.Username, utils.RoleAdmin, h.TTL)
	if err != nil {
		utils.AbortWithError(c, "Login failed", err)
		return
	}

	logger.Info("Admin logged in", zap.String("username", req.Username))
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": time.Now().Add(h.TTL).UTC(),
	})
}

func (h *AdminHandler) authenticate(username, password string) bool {
	if h.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}
