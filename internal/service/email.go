package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sample-app/internal/helpers"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
Hello {{.Name}},

Welcome to {{.AppName}}! Your account has been created successfully.

Username: {{.Username}}

Thanks for joining us!
`))

var orderTemplate = template.Must(template.New("order").Parse(`
Hello {{.Name}},

Your order has been confirmed.

Order ID : {{.OrderID}}
Total    : {{.Total}}

We'll notify you when it ships.
`))

// SentEmail is an outbox entry.
type SentEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// EmailService sends account and order notifications. Every attempt is
// recorded in an outbox, whether or not delivery succeeds.
type EmailService interface {
	SendWelcome(ctx context.Context, to, username, name string) bool
	SendOrderConfirmation(ctx context.Context, to, name, orderID string, total decimal.Decimal) bool
	SentCount() int
	Sent() []SentEmail
}

// EmailOptions configures NewEmailService. In Debug mode the mailer is never
// called and every send reports success.
type EmailOptions struct {
	AppName string
	From    string
	Debug   bool
	Mailer  Mailer
	Logger  logrus.FieldLogger
}

type emailService struct {
	mu     sync.Mutex
	opts   EmailOptions
	outbox []SentEmail
	log    logrus.FieldLogger
}

func NewEmailService(opts EmailOptions) EmailService {
	if opts.AppName == "" {
		opts.AppName = "SampleApp"
	}
	return &emailService{opts: opts, log: loggerOrDiscard(opts.Logger)}
}

func (s *emailService) SendWelcome(ctx context.Context, to, username, name string) bool {
	if name == "" {
		name = username
	}
	body, err := render(welcomeTemplate, map[string]string{
		"Name":     name,
		"AppName":  s.opts.AppName,
		"Username": username,
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to render welcome email")
		return false
	}
	return s.send(ctx, to, fmt.Sprintf("Welcome to %s!", s.opts.AppName), body)
}

func (s *emailService) SendOrderConfirmation(ctx context.Context, to, name, orderID string, total decimal.Decimal) bool {
	body, err := render(orderTemplate, map[string]string{
		"Name":    name,
		"OrderID": orderID,
		"Total":   helpers.FormatCurrency(total, DefaultCurrency),
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to render order email")
		return false
	}
	return s.send(ctx, to, fmt.Sprintf("Order Confirmation - %s", orderID), body)
}

func (s *emailService) send(ctx context.Context, to, subject, body string) bool {
	s.mu.Lock()
	s.outbox = append(s.outbox, SentEmail{To: to, Subject: subject})
	s.mu.Unlock()

	entry := s.log.WithFields(logrus.Fields{"to": to, "subject": subject})
	if s.opts.Debug || s.opts.Mailer == nil {
		entry.Debug("Skipping SMTP delivery")
		return true
	}

	if err := s.opts.Mailer.Send(ctx, Message{
		From:    s.opts.From,
		To:      to,
		Subject: subject,
		Body:    body,
	}); err != nil {
		entry.WithError(err).Error("Failed to send email")
		return false
	}
	entry.Info("Email sent")
	return true
}

func (s *emailService) SentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

func (s *emailService) Sent() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, len(s.outbox))
	copy(out, s.outbox)
	return out
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
