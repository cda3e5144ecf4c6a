package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "flux/internal/errors"
	"flux/internal/middleware"
	"flux/internal/models"
	"flux/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date. An empty
// string yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+" format")
}

// bindError turns a binding failure into ErrInvalidInput.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes the standard error envelope.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}
