package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrMissingCredentials is returned before any connection is attempted when
// the SMTP username or password is empty
var ErrMissingCredentials = errors.New("email credentials not found in environment variables")

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Sender delivers report emails over SMTP with a mandatory STARTTLS upgrade.
// Each send opens and closes its own connection.
type Sender struct {
	cfg  Config
	dial gomail.DialContextFunc
}

// NewSender creates a new SMTP sender
func NewSender(cfg Config) *Sender {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Sender{cfg: cfg}
}

// WithDialer replaces the network dialer used to reach the SMTP server
func (s *Sender) WithDialer(dial gomail.DialContextFunc) *Sender {
	s.dial = dial
	return s
}

// Configured reports whether credentials are present
func (s *Sender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// From returns the sending address
func (s *Sender) From() string {
	return s.cfg.Username
}

// SendMarkdown converts the markdown body to HTML, wraps it in the report
// template and sends it to a single recipient.
func (s *Sender) SendMarkdown(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return ErrMissingCredentials
	}

	html, err := RenderReport(body)
	if err != nil {
		return err
	}

	msg, err := s.newMessage(to, subject)
	if err != nil {
		return err
	}
	msg.SetBodyString(gomail.TypeTextHTML, html)

	return s.send(ctx, msg)
}

// SendPlain sends a plain text message, used for SMTP smoke tests
func (s *Sender) SendPlain(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return ErrMissingCredentials
	}

	msg, err := s.newMessage(to, subject)
	if err != nil {
		return err
	}
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return s.send(ctx, msg)
}

func (s *Sender) newMessage(to, subject string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	return msg, nil
}

func (s *Sender) send(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.dial != nil {
		opts = append(opts, gomail.WithDialContextFunc(s.dial))
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	log.Printf("[Mail] Sending via %s:%d", s.cfg.Host, s.cfg.Port)
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	log.Printf("[Mail] Sent successfully")
	return nil
}
