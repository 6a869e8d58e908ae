package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Mailer delivers transactional email through an HTTP mail provider.
// When no API URL is configured it logs and reports success, so local
// development works without a provider account.
type Mailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
	log    zerolog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(apiURL, apiKey, from string, log zerolog.Logger) *Mailer {
	return &Mailer{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts a single message to the mail provider. Callers that must not
// leave dangling state on delivery failure (registration) check this error.
func (m *Mailer) Send(to, subject, html string) error {
	if m.apiURL == "" {
		m.log.Info().Str("to", to).Str("subject", subject).Msg("mail provider not configured, skipping send")
		return nil
	}

	body, err := json.Marshal(mailPayload{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("mail delivery failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		m.log.Error().Int("status", resp.StatusCode).Str("to", to).Msg("mail provider rejected message")
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}

// SendVerificationCode emails the one-time registration code.
func (m *Mailer) SendVerificationCode(to, name, code string) error {
	subject := "Verify your email address"
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your verification code is <b>%s</b>. It expires in 10 minutes.</p>",
		name, code)
	return m.Send(to, subject, html)
}

// SendPasswordResetCode emails the forgot-password code.
func (m *Mailer) SendPasswordResetCode(to, name, code string) error {
	subject := "Reset your password"
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your password reset code is <b>%s</b>. It expires in 10 minutes.</p>",
		name, code)
	return m.Send(to, subject, html)
}

// SendWelcome emails a post-verification greeting. Best effort.
func (m *Mailer) SendWelcome(to, name string) error {
	subject := "Welcome to Tradegate"
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your account is verified. You can now request quotes and place orders.</p>",
		name)
	return m.Send(to, subject, html)
}
