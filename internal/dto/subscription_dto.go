package dto

import "github.com/google/uuid"

type SubscribeRequest struct {
	PlanID      uuid.UUID `json:"plan_id"`
	BillingType string    `json:"billing_type"`
}

// AdminTransitionRequest drives PUT /users/:userId/subscriptions/:subscriptionId.
type AdminTransitionRequest struct {
	Action string `json:"action"` // activate | deactivate | cancel
}
