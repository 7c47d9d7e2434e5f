// Package services отправляет письма пользователям по сообщениям из очереди уведомлений.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/lib/smtp"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// SenderService формирует и отправляет письма.
type SenderService struct {
	transport smtp.TransportInterface
	signInURL string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// signInURL попадает в ссылки писем.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface, signInURL string) *SenderService {
	return &SenderService{
		transport: transport,
		signInURL: signInURL,
		log:       log,
	}
}

// SendNotification обрабатывает одно сообщение очереди.
// Нечитаемое сообщение подтверждается без отправки, ошибка SMTP возвращается для повтора.
func (s *SenderService) SendNotification(body []byte) error {
	const op = "services.sender.SendNotification"
	log := s.log.With(slog.String("op", op))

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Error("failed to unmarshal message body, message dropped", sl.Err(err))
		return nil
	}
	if n.Email == "" || strings.ContainsAny(n.Email+n.Name, "\r\n") {
		log.Error("invalid recipient, message dropped", slog.String("kind", n.Kind))
		return nil
	}

	name := n.Name
	if name == "" {
		name = n.Email
	}

	var subject, text string
	switch n.Kind {
	case models.NotificationWelcome:
		subject = "Welcome to Notes"
		text = fmt.Sprintf("Hi %s,\n\nYour account is ready. Sign in to start writing notes:\n%s\n",
			name, s.signInURL)
	case models.NotificationProUpgrade:
		subject = "You are now on Notes Pro"
		text = fmt.Sprintf("Hi %s,\n\nThanks for subscribing! Your Pro plan is active.\nSign in to continue:\n%s\n",
			name, s.signInURL)
	default:
		log.Warn("unknown notification kind, message dropped", slog.String("kind", n.Kind))
		return nil
	}

	if err := s.sendEmail([]string{n.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("email sent", slog.String("kind", n.Kind))
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	return client.Quit()
}
