// Package mailer delivers reminder emails through MailerSend, falling back
// to plain SMTP when no API key is configured.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/smtp"
	"time"

	"tracksub/internal/domain/notification"
	"tracksub/internal/shared/config"
)

const (
	mailerSendURL  = "https://api.mailersend.com/v1/email"
	defaultTimeout = 15 * time.Second
)

type Mailer struct {
	httpClient *http.Client
	apiURL     string
	cfg        config.MailConfig
}

var _ notification.Sender = (*Mailer)(nil)

func New(cfg config.MailConfig) *Mailer {
	return &Mailer{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiURL:     mailerSendURL,
		cfg:        cfg,
	}
}

// Send delivers one email and reports success. Without any configured
// provider the message is logged instead, which keeps local development
// working without credentials.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) bool {
	switch {
	case m.cfg.MailerSendAPIKey != "":
		return m.sendAPI(ctx, to, subject, body)
	case m.cfg.SMTPHost != "":
		return m.sendSMTP(to, subject, body)
	default:
		log.Printf("mailer not configured, would send to %s: %s", to, subject)
		return true
	}
}

type apiPayload struct {
	From    apiAddress   `json:"from"`
	To      []apiAddress `json:"to"`
	Subject string       `json:"subject"`
	Text    string       `json:"text"`
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (m *Mailer) sendAPI(ctx context.Context, to, subject, body string) bool {
	payload := apiPayload{
		From:    apiAddress{Email: m.cfg.FromAddress, Name: m.cfg.FromName},
		To:      []apiAddress{{Email: to}},
		Subject: subject,
		Text:    body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("mailer: failed to encode payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(data))
	if err != nil {
		log.Printf("mailer: failed to create request: %v", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.MailerSendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("mailer: request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("mailer: API returned status %d: %s", resp.StatusCode, msg)
		return false
	}
	return true
}

func (m *Mailer) sendSMTP(to, subject, body string) bool {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.cfg.FromName, m.cfg.FromAddress, to, subject, body,
	)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		log.Printf("mailer: smtp send failed: %v", err)
		return false
	}
	return true
}
