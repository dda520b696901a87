package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// CalendarService simulates a calendar provider.
type CalendarService struct {
	creds Credentials
}

func NewCalendarService(creds Credentials) *CalendarService {
	return &CalendarService{creds: creds}
}

func (s *CalendarService) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eventID := uuid.New().String()
	slog.Info("creating calendar event", "date", fields["date"], "time", fields["time"], "event_id", eventID)

	summary := fmt.Sprintf("Meeting scheduled for %s at %s with %s", fields["date"], fields["time"], fields["participants"])
	if loc := fields["location"]; loc != "" {
		summary += " in " + loc
	}

	return map[string]string{
		"event_id": eventID,
		"summary":  summary,
	}, nil
}
