package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/events"
)

// Sender delivers one message. Split out so tests can capture mail
// without a real SMTP server.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender sends via a plain SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(cfg internal.MailConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (s *SMTPSender) Send(to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(addr, auth, s.from, to, []byte(msg))
}

// Service turns registration events into notifications. Delivery
// failures are logged and never propagate into the workflow that raised
// the event.
type Service struct {
	sender     Sender
	adminAddrs []string
	enabled    bool
	logger     *slog.Logger
}

func NewService(sender Sender, cfg internal.MailConfig, logger *slog.Logger) *Service {
	return &Service{
		sender:     sender,
		adminAddrs: cfg.AdminAddrs,
		enabled:    cfg.Enabled,
		logger:     logger,
	}
}

// SubscribeAll wires the service onto the event bus.
func (s *Service) SubscribeAll(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeRegistrationSubmitted, s.handleSubmitted)
	bus.Subscribe(events.EventTypeRegistrationApproved, s.handleApproved)
	bus.Subscribe(events.EventTypeRegistrationRejected, s.handleRejected)
}

func (s *Service) handleSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RegistrationSubmittedEvent)
	if !ok {
		return nil
	}
	subject := "New teacher registration submitted"
	body := fmt.Sprintf("Registration #%d from %s is waiting for review.", e.RegistrationID, e.ApplicantName)
	s.send(s.adminAddrs, subject, body)
	return nil
}

func (s *Service) handleApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RegistrationApprovedEvent)
	if !ok {
		return nil
	}
	if e.ApplicantEmail == "" {
		return nil
	}
	subject := "Your teacher registration has been approved"
	body := fmt.Sprintf("Dear %s,\n\nYour teacher registration has been approved and your staff profile is now active.", e.ApplicantName)
	s.send([]string{e.ApplicantEmail}, subject, body)
	return nil
}

func (s *Service) handleRejected(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RegistrationRejectedEvent)
	if !ok {
		return nil
	}
	if e.ApplicantEmail == "" {
		return nil
	}
	subject := "Your teacher registration requires attention"
	body := fmt.Sprintf("Dear %s,\n\nYour teacher registration was not approved.\n\nReviewer comments:\n%s", e.ApplicantName, e.Comments)
	s.send([]string{e.ApplicantEmail}, subject, body)
	return nil
}

func (s *Service) send(to []string, subject, body string) {
	if !s.enabled || len(to) == 0 {
		return
	}
	if err := s.sender.Send(to, subject, body); err != nil {
		s.logger.Error("failed to send notification", "error", err, "subject", subject)
		return
	}
	s.logger.Info("notification sent", "subject", subject, "recipients", len(to))
}
