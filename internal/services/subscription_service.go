package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/apigate/apigate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound     = errors.New("no active subscription")
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	ErrInvalidBillingType       = errors.New("billing type must be monthly or annual")
	ErrAlreadyActive            = errors.New("subscription is already active")
	ErrNotActive                = errors.New("subscription is not active")
	ErrInvalidAction            = errors.New("action must be activate, deactivate or cancel")
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe creates the subscription row and nothing else. Token minting and
// email delivery are orchestrated by the caller after this returns, so a mint
// failure can never roll back a paid subscription.
func (s *SubscriptionService) Subscribe(userID, planID uuid.UUID, billingType string) (*models.Subscription, error) {
	if billingType != models.BillingMonthly && billingType != models.BillingAnnual {
		return nil, ErrInvalidBillingType
	}

	var plan models.Plan
	if err := s.db.First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}

	var existing models.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).First(&existing).Error
	if err == nil {
		return nil, ErrActiveSubscriptionExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}

	now := time.Now().UTC()
	price := plan.MonthlyPrice
	expiresAt := now.AddDate(0, 0, 30)
	if billingType == models.BillingAnnual {
		price = plan.AnnualPrice
		expiresAt = now.AddDate(0, 0, 365)
	}

	sub := models.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		BillingType: billingType,
		Price:       price,
		StartDate:   now,
		ExpiresAt:   expiresAt,
		Status:      models.SubscriptionActive,
		AutoRenew:   true,
	}

	if err := s.db.Create(&sub).Error; err != nil {
		// Racing subscribe calls land here: the partial unique index on
		// (user_id, status='active') makes the loser fail instead of
		// inserting a duplicate active row.
		if isUniqueViolation(err) {
			return nil, ErrActiveSubscriptionExists
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionService) GetActive(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

// Cancel is deliberately not a silent no-op: cancelling with nothing active
// returns ErrSubscriptionNotFound so callers can tell the two cases apart.
func (s *SubscriptionService) Cancel(userID uuid.UUID) error {
	result := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Updates(map[string]interface{}{
			"status":     models.SubscriptionCancelled,
			"auto_renew": false,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to cancel subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// AdminTransition applies an admin-driven lifecycle change. Upstream token
// status sync is the caller's concern; the ledger never talks to the token
// service so token rotation cannot change billing state.
func (s *SubscriptionService) AdminTransition(userID, subscriptionID uuid.UUID, action string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("id = ? AND user_id = ?", subscriptionID, userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}

	switch action {
	case "activate":
		if sub.Status == models.SubscriptionActive {
			return nil, ErrAlreadyActive
		}
		if err := s.db.Model(&sub).Update("status", models.SubscriptionActive).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrActiveSubscriptionExists
			}
			return nil, fmt.Errorf("failed to activate subscription: %w", err)
		}
	case "deactivate":
		if sub.Status != models.SubscriptionActive {
			return nil, ErrNotActive
		}
		if err := s.db.Model(&sub).Update("status", models.SubscriptionExpired).Error; err != nil {
			return nil, fmt.Errorf("failed to deactivate subscription: %w", err)
		}
	case "cancel":
		if err := s.db.Model(&sub).Updates(map[string]interface{}{
			"status":     models.SubscriptionCancelled,
			"auto_renew": false,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to cancel subscription: %w", err)
		}
	default:
		return nil, ErrInvalidAction
	}

	return &sub, nil
}

// ExpireOverdue flips overdue active subscriptions to expired. The conditional
// WHERE keeps it safe against a concurrent user cancel: a row that is no
// longer active is left alone.
func (s *SubscriptionService) ExpireOverdue(now time.Time) (int64, error) {
	result := s.db.Model(&models.Subscription{}).
		Where("status = ? AND expires_at < ?", models.SubscriptionActive, now).
		Update("status", models.SubscriptionExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartExpirySweep runs the daily expiry sweep until done is closed.
func (s *SubscriptionService) StartExpirySweep(done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				expired, err := s.ExpireOverdue(time.Now().UTC())
				if err != nil {
					slog.Error("subscription expiry sweep failed", "error", err)
				} else if expired > 0 {
					slog.Info("subscription expiry sweep completed", "expired", expired)
				}
			case <-done:
				return
			}
		}
	}()
}
