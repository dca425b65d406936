package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrDuplicatePlan = errors.New("plan name or tag already exists")
	ErrPlanInUse     = errors.New("plan has active subscriptions")
	ErrInvalidPlan   = errors.New("plan name and tag are required; tag must be lowercase")
)

type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ListActivePlans returns active plans cheapest-first.
func (s *PlanService) ListActivePlans() ([]models.Plan, error) {
	var plans []models.Plan
	if err := s.db.Where("active = ?", true).Order("monthly_price ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) GetPlan(id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) CreatePlan(req *dto.CreatePlanRequest) (*models.Plan, error) {
	if err := validatePlanFields(req.Name, req.Tag); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	plan := models.Plan{
		ID:           uuid.New(),
		Name:         req.Name,
		Tag:          req.Tag,
		Description:  req.Description,
		MonthlyPrice: req.MonthlyPrice,
		AnnualPrice:  req.AnnualPrice,
		Features:     marshalFeatures(req.Features),
		Popular:      req.Popular,
		Active:       active,
	}

	if err := s.db.Create(&plan).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePlan
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) UpdatePlan(id uuid.UUID, req *dto.UpdatePlanRequest) (*models.Plan, error) {
	plan, err := s.GetPlan(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Tag != nil {
		if *req.Tag != strings.ToLower(*req.Tag) || *req.Tag == "" {
			return nil, ErrInvalidPlan
		}
		updates["tag"] = *req.Tag
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.MonthlyPrice != nil {
		updates["monthly_price"] = *req.MonthlyPrice
	}
	if req.AnnualPrice != nil {
		updates["annual_price"] = *req.AnnualPrice
	}
	if req.Features != nil {
		updates["features"] = marshalFeatures(req.Features)
	}
	if req.Popular != nil {
		updates["popular"] = *req.Popular
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) == 0 {
		return plan, nil
	}

	if err := s.db.Model(plan).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePlan
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

// DeletePlan refuses to remove a plan that still has active subscribers.
func (s *PlanService) DeletePlan(id uuid.UUID) error {
	plan, err := s.GetPlan(id)
	if err != nil {
		return err
	}

	var activeSubs int64
	if err := s.db.Model(&models.Subscription{}).
		Where("plan_id = ? AND status = ?", id, models.SubscriptionActive).
		Count(&activeSubs).Error; err != nil {
		return fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if activeSubs > 0 {
		return ErrPlanInUse
	}

	return s.db.Delete(plan).Error
}

func validatePlanFields(name, tag string) error {
	if name == "" || tag == "" || tag != strings.ToLower(tag) {
		return ErrInvalidPlan
	}
	return nil
}

func marshalFeatures(features []string) datatypes.JSON {
	if features == nil {
		features = []string{}
	}
	b, _ := json.Marshal(features)
	return datatypes.JSON(b)
}

// isUniqueViolation matches constraint errors from both Postgres and the
// SQLite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
