// api/handlers/auth_handlers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"eventstream/api/logging"
	"eventstream/api/middleware"
	"eventstream/api/models"
	"eventstream/api/store"
)

type AuthHandlers struct {
	UserStore    UserStore
	Tokens       TokenIssuer
	SecureCookie bool
	bcryptCost   int
}

func NewAuthHandlers(userStore UserStore, tokens TokenIssuer, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{
		UserStore:    userStore,
		Tokens:       tokens,
		SecureCookie: secureCookie,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func (h *AuthHandlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	_, err := h.UserStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		logging.Error().Err(err).Msg("checking user existence during signup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user existence"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		logging.Error().Err(err).Msg("hashing password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user, err := h.UserStore.CreateUser(c.Request.Context(), req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
			return
		}
		logging.Error().Err(err).Msg("creating user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_email": user.Email})
}

// Login checks credentials and sets the JWT cookie.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.UserStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logging.Error().Err(err).Msg("loading user for login")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.Password)); err != nil {
		logging.Info().Int("user_id", user.ID).Msg("login failed: password mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := h.Tokens.Generate(user)
	if err != nil {
		logging.Error().Err(err).Int("user_id", user.ID).Msg("generating JWT")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		middleware.TokenCookieName,
		tokenString,
		int(h.Tokens.TTL().Seconds()),
		"/",
		"",
		h.SecureCookie,
		true,
	)

	logging.Info().Int("user_id", user.ID).Msg("user logged in")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user_email": user.Email,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookieName, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandlers) Profile(c *gin.Context) {
	_, viaToken := c.Get(middleware.ContextUserID)
	c.JSON(http.StatusOK, models.Profile{
		UserID:    c.GetInt(middleware.ContextUserID),
		UserEmail: c.GetString(middleware.ContextUserEmail),
		APIKey:    !viaToken,
		IPAddress: c.ClientIP(),
	})
}
