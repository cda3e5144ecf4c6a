// Package calendar proxies a user's primary Google Calendar using the
// caller's own OAuth access token.
package calendar

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "flux/internal/errors"
	"flux/internal/logger"
)

const primaryCalendar = "primary"

// EventTime is either a timed instant (DateTime, RFC 3339) or an all-day Date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventInput is the writable part of an event.
type EventInput struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *EventTime `json:"start"`
	End         *EventTime `json:"end"`
}

// Event is a calendar event as returned to API clients.
type Event struct {
	ID          string     `json:"id"`
	Status      string     `json:"status,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
}

// ListQuery bounds an event listing.
type ListQuery struct {
	TimeMin time.Time
	TimeMax time.Time
}

// Service talks to the Google Calendar API. It holds no credentials; every
// call builds a client around the caller's token.
type Service struct {
	opts []option.ClientOption
}

// NewService creates a calendar Service. opts are appended to every client,
// e.g. option.WithEndpoint in tests.
func NewService(opts ...option.ClientOption) *Service {
	return &Service{opts: opts}
}

func (s *Service) client(ctx context.Context, token string) (*gcal.Service, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Google access token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, s.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstream, err)
	}
	return svc, nil
}

// ListEvents returns single events between TimeMin and TimeMax ordered by start time.
func (s *Service) ListEvents(ctx context.Context, token string, query ListQuery) ([]Event, error) {
	if query.TimeMin.IsZero() || query.TimeMax.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "timeMin and timeMax are required")
	}
	if query.TimeMax.Before(query.TimeMin) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "timeMax must not be before timeMin")
	}

	svc, err := s.client(ctx, token)
	if err != nil {
		return nil, err
	}

	result, err := svc.Events.List(primaryCalendar).
		TimeMin(query.TimeMin.Format(time.RFC3339)).
		TimeMax(query.TimeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, providerError("list", err)
	}

	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, fromGoogle(item))
	}
	return events, nil
}

// CreateEvent inserts a new event.
func (s *Service) CreateEvent(ctx context.Context, token string, input EventInput) (*Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	svc, err := s.client(ctx, token)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(primaryCalendar, toGoogle(input)).Context(ctx).Do()
	if err != nil {
		return nil, providerError("create", err)
	}
	event := fromGoogle(created)
	return &event, nil
}

// UpdateEvent replaces the writable fields of an existing event.
func (s *Service) UpdateEvent(ctx context.Context, token, eventID string, input EventInput) (*Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "event id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	svc, err := s.client(ctx, token)
	if err != nil {
		return nil, err
	}

	updated, err := svc.Events.Update(primaryCalendar, eventID, toGoogle(input)).Context(ctx).Do()
	if err != nil {
		return nil, providerError("update", err)
	}
	event := fromGoogle(updated)
	return &event, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, token, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "event id is required")
	}
	svc, err := s.client(ctx, token)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(primaryCalendar, eventID).Context(ctx).Do(); err != nil {
		return providerError("delete", err)
	}
	return nil
}

func validateInput(input EventInput) error {
	if input.Start == nil || input.End == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end are required")
	}
	if (input.Start.DateTime == "" && input.Start.Date == "") || (input.End.DateTime == "" && input.End.Date == "") {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end need a dateTime or a date")
	}
	return nil
}

// providerError maps a Google API failure onto ErrUpstream, keeping the
// provider's status in the log only.
func providerError(op string, err error) error {
	log := logger.Named("calendar")
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		log.Warnw("calendar request failed", "op", op, "status", gerr.Code, "error", gerr.Message)
	} else {
		log.Warnw("calendar request failed", "op", op, "error", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrUpstreamTimeout, err)
	}
	return apperrors.Wrap(apperrors.ErrUpstream, err)
}

func toGoogle(input EventInput) *gcal.Event {
	return &gcal.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       toGoogleTime(input.Start),
		End:         toGoogleTime(input.End),
	}
}

func toGoogleTime(t *EventTime) *gcal.EventDateTime {
	if t == nil {
		return nil
	}
	out := &gcal.EventDateTime{TimeZone: t.TimeZone}
	if t.DateTime != "" {
		out.DateTime = t.DateTime
	} else {
		out.Date = t.Date
	}
	return out
}

func fromGoogle(e *gcal.Event) Event {
	return Event{
		ID:          e.Id,
		Status:      e.Status,
		HTMLLink:    e.HtmlLink,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       fromGoogleTime(e.Start),
		End:         fromGoogleTime(e.End),
		Created:     e.Created,
		Updated:     e.Updated,
	}
}

func fromGoogleTime(t *gcal.EventDateTime) *EventTime {
	if t == nil {
		return nil
	}
	return &EventTime{DateTime: t.DateTime, Date: t.Date, TimeZone: t.TimeZone}
}
