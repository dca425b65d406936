package services

import (
	"testing"

	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPlan(t *testing.T, s *PlanService, name, tag string, monthly, annual float64) *models.Plan {
	t.Helper()
	plan, err := s.CreatePlan(&dto.CreatePlanRequest{
		Name:         name,
		Tag:          tag,
		MonthlyPrice: monthly,
		AnnualPrice:  annual,
		Features:     []string{"feature one"},
	})
	require.NoError(t, err)
	return plan
}

func TestListActivePlansSortedByPrice(t *testing.T) {
	db := newTestDB(t)
	s := NewPlanService(db)

	createPlan(t, s, "Entreprise", "entreprise", 500, 5000)
	createPlan(t, s, "Basique", "basique", 50, 500)
	pro := createPlan(t, s, "Pro", "pro", 200, 2000)

	inactive := false
	_, err := s.UpdatePlan(pro.ID, &dto.UpdatePlanRequest{Active: &inactive})
	require.NoError(t, err)

	plans, err := s.ListActivePlans()
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Basique", plans[0].Name)
	assert.Equal(t, "Entreprise", plans[1].Name)
}

func TestGetPlanNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewPlanService(db)

	_, err := s.GetPlan(uuid.New())
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreatePlanDuplicateNameOrTag(t *testing.T) {
	db := newTestDB(t)
	s := NewPlanService(db)

	createPlan(t, s, "Pro", "pro", 200, 2000)

	_, err := s.CreatePlan(&dto.CreatePlanRequest{Name: "Pro", Tag: "pro2", MonthlyPrice: 1, AnnualPrice: 1})
	assert.ErrorIs(t, err, ErrDuplicatePlan)

	_, err = s.CreatePlan(&dto.CreatePlanRequest{Name: "Pro 2", Tag: "pro", MonthlyPrice: 1, AnnualPrice: 1})
	assert.ErrorIs(t, err, ErrDuplicatePlan)
}

func TestCreatePlanValidation(t *testing.T) {
	db := newTestDB(t)
	s := NewPlanService(db)

	_, err := s.CreatePlan(&dto.CreatePlanRequest{Name: "", Tag: "pro"})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = s.CreatePlan(&dto.CreatePlanRequest{Name: "Pro", Tag: "Pro"})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestDeletePlanWithActiveSubscriber(t *testing.T) {
	db := newTestDB(t)
	plans := NewPlanService(db)
	subs := NewSubscriptionService(db)

	plan := createPlan(t, plans, "Pro", "pro", 200, 2000)
	userID := uuid.New()

	_, err := subs.Subscribe(userID, plan.ID, models.BillingMonthly)
	require.NoError(t, err)

	err = plans.DeletePlan(plan.ID)
	assert.ErrorIs(t, err, ErrPlanInUse)

	require.NoError(t, subs.Cancel(userID))

	assert.NoError(t, plans.DeletePlan(plan.ID))
}
