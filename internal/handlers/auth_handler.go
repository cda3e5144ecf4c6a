package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "flux/internal/errors"
	"flux/internal/middleware"
	"flux/internal/models"
	"flux/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService services.UserServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name            string  `json:"name" binding:"required,max=50"`
	LastName        string  `json:"lastName" binding:"required,max=50"`
	DateOfBirth     string  `json:"dateOfBirth" binding:"required,past_date"`
	Email           string  `json:"email" binding:"required,email_lite,max=255"`
	Password        string  `json:"password" binding:"required,min=6,max=128"`
	ProfileImageURL *string `json:"profileImageUrl" binding:"omitempty,url,max=512"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the data returned after register, login and profile updates.
type AuthResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an account and return a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} Envelope{data=AuthResponse} "User registered and token generated"
// @Failure     400 {object} middleware.ErrorEnvelope "Invalid input"
// @Failure     409 {object} middleware.ErrorEnvelope "Email already registered"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	dob, err := parseDate("dateOfBirth", req.DateOfBirth)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Name:            req.Name,
		LastName:        req.LastName,
		DateOfBirth:     dob,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", AuthResponse{Token: token, User: user.Profile()})
}

// Login handles user login
// @Summary     Log in
// @Description Exchange email and password for a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} Envelope{data=AuthResponse}
// @Failure     401 {object} middleware.ErrorEnvelope "Invalid credentials"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	respond(c, http.StatusOK, "Login successful", AuthResponse{Token: token, User: user.Profile()})
}

// Logout acknowledges a logout. Tokens are stateless; clients discard them.
// @Summary     Log out
// @Tags        auth
// @Produce     json
// @Success     200 {object} Envelope
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	respond(c, http.StatusOK, "Logout successful", nil)
}
