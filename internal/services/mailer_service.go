package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apigate/apigate-backend/internal/config"
)

// MailerService is a thin client for the external notification dispatcher.
// Delivery is best-effort everywhere except registration verification, where
// the caller rolls back the unverifiable account.
type MailerService struct {
	baseURL string
	client  *http.Client
}

func NewMailerService(cfg *config.Config) *MailerService {
	return &MailerService{
		baseURL: cfg.MailerURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

type tokenMailRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type verificationMailRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Link  string `json:"link"`
}

// SendToken delivers a freshly minted upstream token. The raw token value is
// never stored locally, so this is its only delivery path.
func (m *MailerService) SendToken(email, name, plan, token string, expiresAt time.Time) error {
	return m.post("/send", tokenMailRequest{
		Email:     email,
		Name:      name,
		Plan:      plan,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func (m *MailerService) SendVerification(email, name, link string) error {
	return m.post("/send_verification", verificationMailRequest{
		Email: email,
		Name:  name,
		Link:  link,
	})
}

func (m *MailerService) post(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	resp, err := m.client.Post(m.baseURL+path, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("mail dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail dispatch failed (status %d)", resp.StatusCode)
	}
	return nil
}
