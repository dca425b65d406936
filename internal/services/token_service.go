package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUpstreamUnavailable = errors.New("upstream token service unavailable")

// TokenService talks to the external token-minting service. It never mutates
// subscription state; the ledger stays authoritative even when minting fails.
type TokenService struct {
	db      *gorm.DB
	subs    *SubscriptionService
	mailer  *MailerService
	baseURL string
	client  *http.Client
}

func NewTokenService(db *gorm.DB, cfg *config.Config, subs *SubscriptionService, mailer *MailerService) *TokenService {
	return &TokenService{
		db:      db,
		subs:    subs,
		mailer:  mailer,
		baseURL: cfg.TokenServiceURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

type createTokenRequest struct {
	ID        string `json:"id"`
	Plan      string `json:"plan"`
	ExpiresAt string `json:"expires_at"`
}

type createTokenResponse struct {
	AccessToken string `json:"access_token"`
	Plan        string `json:"plan"`
}

type updateTokenRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Mint requests one upstream bearer token scoped to {user, plan, expiry}.
// Exactly one attempt per invocation; retrying is the caller's call, since a
// blind retry could issue duplicate tokens.
func (s *TokenService) Mint(userID uuid.UUID, planName string, expiresAt time.Time) (string, error) {
	payload := createTokenRequest{
		ID:        userID.String(),
		Plan:      planName,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal mint request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", s.baseURL+"/create_user_token", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create mint request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, httpResp.StatusCode, string(bodyBytes))
	}

	var resp createTokenResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: invalid mint response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstreamUnavailable)
	}

	// Pass-through discrepancy: surfaced in logs, never reconciled silently.
	if resp.Plan != "" && resp.Plan != planName {
		slog.Warn("token service returned different plan label",
			"user_id", userID.String(), "requested", planName, "returned", resp.Plan)
	}

	meta := models.UpstreamTokenMeta{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      planName,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(&meta).Error; err != nil {
		slog.Error("failed to record token metadata", "user_id", userID.String(), "error", err)
	}

	return resp.AccessToken, nil
}

// MintAndDeliver mints a token and emails it to the user. Mail failure after a
// successful mint is logged only; the token already exists upstream.
func (s *TokenService) MintAndDeliver(user *models.User, planName string, expiresAt time.Time) (string, error) {
	token, err := s.Mint(user.ID, planName, expiresAt)
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendToken(user.Email, user.Name, planName, token, expiresAt); err != nil {
		slog.Error("token mail delivery failed", "user_id", user.ID.String(), "error", err)
	}
	return token, nil
}

// MintForSubscription is the subscribe-time entry point, run fire-and-forget
// by the orchestrating handler after the subscription row is durable.
func (s *TokenService) MintForSubscription(sub *models.Subscription) (string, error) {
	return s.mintForUser(sub.UserID, sub.PlanName, sub.ExpiresAt)
}

// Regenerate mints a replacement token for the user's active subscription with
// the subscription's existing expiry. Rotation never extends validity; the
// bookkeeping for the replaced token lives upstream.
func (s *TokenService) Regenerate(userID uuid.UUID) (string, error) {
	sub, err := s.subs.GetActive(userID)
	if err != nil {
		return "", err
	}
	return s.mintForUser(userID, sub.PlanName, sub.ExpiresAt)
}

func (s *TokenService) mintForUser(userID uuid.UUID, planName string, expiresAt time.Time) (string, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.MintAndDeliver(&user, planName, expiresAt)
}

// UpdateStatus flips the upstream token between active and revoked. Callers
// treat failures as best-effort: local ledger state stays authoritative.
func (s *TokenService) UpdateStatus(userID uuid.UUID, status string) error {
	body, err := json.Marshal(updateTokenRequest{ID: userID.String(), Status: status})
	if err != nil {
		return fmt.Errorf("failed to marshal update request: %w", err)
	}

	resp, err := s.client.Post(s.baseURL+"/update_user_token", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}
