package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shubhams-here/Dabba-Drop/internal/auth"
	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

// AuthHandler serves signup, signin and signout. Sessions live in the
// "token" cookie so the browser, the websocket upgrade and the REST
// calls all share one credential.
type AuthHandler struct {
	cfg   *config.Config
	users services.IUserService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(cfg *config.Config, users services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users}
}

type signUpRequest struct {
	FullName string      `json:"fullName" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Mobile   string      `json:"mobile"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		respondError(c, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondServiceError(c, err, "User not found")
		return
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: hash,
		Role:         role,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "Email already registered")
			return
		}
		respondServiceError(c, err, "User not found")
		return
	}

	h.issueSession(c, user)
	respondData(c, http.StatusCreated, user)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		// same answer for unknown email and wrong password
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.issueSession(c, user)
	respondData(c, http.StatusOK, user)
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", h.cfg.CookieSecure, true)
	respondMessage(c, http.StatusOK, "Signed out")
}

func (h *AuthHandler) issueSession(c *gin.Context, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Role, user.IsAdmin, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondServiceError(c, err, "User not found")
		return
	}
	c.SetCookie("token", token, int(h.cfg.JwtTTL.Seconds()), "/", "", h.cfg.CookieSecure, true)
}
