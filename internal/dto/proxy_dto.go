package dto

// ExecuteRequest is one proxied upstream call. It lives only for the duration
// of that call and is never persisted. UserToken is the caller's upstream
// bearer token, supplied fresh on every request.
type ExecuteRequest struct {
	Endpoint   string            `json:"endpoint"`
	Method     string            `json:"method"`
	Parameters map[string]string `json:"parameters"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body,omitempty"`
	UserToken  string            `json:"userToken"`
}

// ExecuteResponse is the normalized envelope the proxy always returns. A raw
// transport error never crosses this boundary.
type ExecuteResponse struct {
	Status  int               `json:"status"`
	Data    interface{}       `json:"data,omitempty"`
	Headers map[string]string `json:"headers"`
	IsCsv   bool              `json:"isCsv"`
	Csv     string            `json:"csv,omitempty"`
	Message string            `json:"message,omitempty"`
}
