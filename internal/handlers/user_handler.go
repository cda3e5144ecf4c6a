package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "flux/internal/errors"
	"flux/internal/middleware"
	"flux/internal/pagination"
	"flux/internal/services"
)

// UserHandler serves the user directory and self-service profile routes.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUserRequest is a partial profile update. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name            string  `json:"name" binding:"omitempty,max=50"`
	LastName        string  `json:"lastName" binding:"omitempty,max=50"`
	DateOfBirth     string  `json:"dateOfBirth" binding:"omitempty,past_date"`
	Email           string  `json:"email" binding:"omitempty,email_lite,max=255"`
	Password        string  `json:"password" binding:"omitempty,min=6,max=128"`
	ProfileImageURL *string `json:"profileImageUrl" binding:"omitempty,max=512"`
}

// ListUsers returns a page of public profiles.
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Zero-based page"
// @Param       size      query int    false "Page size (max 100)"
// @Param       sortBy    query string false "name, lastName, email or dateOfBirth"
// @Param       direction query string false "asc or desc"
// @Success     200 {object} PageEnvelope
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.userService.ListUsers(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondPage(c, http.StatusOK, "Users retrieved successfully", result)
}

// Me returns the authenticated user's profile.
// @Summary     Current user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope{data=models.UserProfile}
// @Failure     401 {object} middleware.ErrorEnvelope
// @Router      /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", user.Profile())
}

// GetUserByID returns the caller's own profile by id.
// @Summary     Get user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} Envelope{data=models.UserProfile}
// @Failure     403 {object} middleware.ErrorEnvelope
// @Router      /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetOwnProfile(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", user.Profile())
}

// GetUserByEmail looks a profile up by email.
// @Summary     Find user by email
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       email query string true "Email address"
// @Success     200 {object} Envelope{data=models.UserProfile}
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /users/email [get]
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required"))
		return
	}

	user, err := h.userService.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", user.Profile())
}

// UpdateUser applies a partial update to the caller's account and returns a
// fresh token, since the email is the token subject.
// @Summary     Update user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} Envelope{data=AuthResponse}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     403 {object} middleware.ErrorEnvelope
// @Failure     409 {object} middleware.ErrorEnvelope
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.UserUpdate{
		Name:            req.Name,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate("dateOfBirth", req.DateOfBirth)
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.DateOfBirth = &dob
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	respond(c, http.StatusOK, "User updated successfully", AuthResponse{Token: token, User: user.Profile()})
}

// DeleteUser removes the caller's account and everything it owns.
// @Summary     Delete user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} Envelope
// @Failure     403 {object} middleware.ErrorEnvelope
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}
