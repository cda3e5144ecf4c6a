package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flux/internal/calendar"
	apperrors "flux/internal/errors"
	"flux/internal/services"
)

const googleTokenHeader = "X-Google-Token"

// CalendarHandler proxies the caller's Google Calendar.
type CalendarHandler struct {
	calendarService services.CalendarServicer
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService services.CalendarServicer) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func googleToken(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.GetHeader(googleTokenHeader))
	if token == "" {
		return "", apperrors.WithMessage(apperrors.ErrUnauthorized, googleTokenHeader+" header is required")
	}
	return token, nil
}

// ListEvents returns primary-calendar events between timeMin and timeMax.
// @Summary     List calendar events
// @Tags        calendar
// @Produce     json
// @Security    BearerAuth
// @Param       X-Google-Token header string true "Google OAuth access token"
// @Param       timeMin        query  string true "RFC 3339 lower bound"
// @Param       timeMax        query  string true "RFC 3339 upper bound"
// @Success     200 {object} Envelope{data=[]calendar.Event}
// @Failure     502 {object} middleware.ErrorEnvelope
// @Router      /calendar/events [get]
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	token, err := googleToken(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	timeMin, err := parseDate("timeMin", c.Query("timeMin"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	timeMax, err := parseDate("timeMax", c.Query("timeMax"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	events, err := h.calendarService.ListEvents(c.Request.Context(), token, calendar.ListQuery{TimeMin: timeMin, TimeMax: timeMax})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Events retrieved successfully", events)
}

// CreateEvent adds an event to the primary calendar.
// @Summary     Create calendar event
// @Tags        calendar
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Google-Token header string              true "Google OAuth access token"
// @Param       request        body   calendar.EventInput true "Event"
// @Success     201 {object} Envelope{data=calendar.Event}
// @Failure     502 {object} middleware.ErrorEnvelope
// @Router      /calendar/events [post]
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	token, err := googleToken(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req calendar.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	event, err := h.calendarService.CreateEvent(c.Request.Context(), token, req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Event created successfully", event)
}

// UpdateEvent replaces an event on the primary calendar.
// @Summary     Update calendar event
// @Tags        calendar
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Google-Token header string              true "Google OAuth access token"
// @Param       eventId        path   string              true "Event ID"
// @Param       request        body   calendar.EventInput true "Event"
// @Success     200 {object} Envelope{data=calendar.Event}
// @Failure     502 {object} middleware.ErrorEnvelope
// @Router      /calendar/events/{eventId} [put]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	token, err := googleToken(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req calendar.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	event, err := h.calendarService.UpdateEvent(c.Request.Context(), token, c.Param("eventId"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Event updated successfully", event)
}

// DeleteEvent removes an event from the primary calendar.
// @Summary     Delete calendar event
// @Tags        calendar
// @Produce     json
// @Security    BearerAuth
// @Param       X-Google-Token header string true "Google OAuth access token"
// @Param       eventId        path   string true "Event ID"
// @Success     200 {object} Envelope
// @Failure     502 {object} middleware.ErrorEnvelope
// @Router      /calendar/events/{eventId} [delete]
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	token, err := googleToken(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.calendarService.DeleteEvent(c.Request.Context(), token, c.Param("eventId")); err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Event deleted successfully", nil)
}
