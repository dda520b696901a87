package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// EmailService simulates an outbound mail provider.
type EmailService struct {
	sender string
	creds  Credentials
}

func NewEmailService(sender string, creds Credentials) *EmailService {
	return &EmailService{sender: sender, creds: creds}
}

func (s *EmailService) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := uuid.New().String()
	slog.Info("sending email", "to", fields["recipient"], "subject", fields["subject"], "message_id", messageID,
		"authenticated", s.creds.Get("smtp_token") != "")

	payload := map[string]string{
		"message_id": messageID,
		"summary":    fmt.Sprintf("Email %q sent to %s", fields["subject"], fields["recipient"]),
	}
	if cc := fields["cc"]; cc != "" {
		payload["cc"] = cc
	}
	return payload, nil
}
