package dto

// ErrorResponse is the uniform error envelope. Kind is a stable
// machine-checkable identifier; Message is for display.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds exposed to clients.
const (
	KindNotFound            = "not_found"
	KindConflict            = "conflict"
	KindUnauthenticated     = "unauthenticated"
	KindUnauthorized        = "unauthorized"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindValidation          = "validation_error"
	KindInternal            = "internal"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
