package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/hibiken/asynq"
)

// Mailer delivers transactional email over SMTP. Local development points it
// at Mailpit.
type Mailer struct {
	Host string
	Port int
	From string
}

// Send delivers one message.
func (m Mailer) Send(to, subject, body string) error {
	addr := m.Host + ":" + strconv.Itoa(m.Port)
	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	if err := smtp.SendMail(addr, nil, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NewSendEmailHandler returns the asynq handler for TaskTypeSendEmail.
func NewSendEmailHandler(logger *slog.Logger, mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := mailer.Send(payload.To, payload.Subject, payload.Body); err != nil {
			logger.Error("send email failed", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
}
