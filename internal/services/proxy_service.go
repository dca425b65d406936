package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/dto"
)

var ErrMissingUserToken = errors.New("per-call API token is required")

// ProxyService forwards one client-specified call to the real upstream API.
// Everything upstream-side is normalized into an ExecuteResponse envelope; a
// raw transport error never escapes past this boundary. No retries: the
// forwarded method may be a non-idempotent POST/PUT/DELETE.
type ProxyService struct {
	baseURL string
	client  *http.Client
}

func NewProxyService(cfg *config.Config) *ProxyService {
	return &ProxyService{
		baseURL: cfg.UpstreamAPIURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

func (s *ProxyService) Execute(req *dto.ExecuteRequest) (*dto.ExecuteResponse, error) {
	// The end-user token is supplied fresh on every call. Substituting a
	// server-held credential here would leak one user's token into another
	// session, so its absence is a hard failure.
	if strings.TrimSpace(req.UserToken) == "" {
		return nil, ErrMissingUserToken
	}

	target := s.buildURL(req.Endpoint, req.Parameters)

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if req.Body != "" {
		reqBody = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(method, target, reqBody)
	if err != nil {
		return errorEnvelope(http.StatusInternalServerError, err.Error()), nil
	}

	for name, value := range req.Headers {
		if value != "" {
			httpReq.Header.Set(name, value)
		}
	}
	httpReq.Header.Set("Authorization", req.UserToken)

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return errorEnvelope(http.StatusInternalServerError, err.Error()), nil
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errorEnvelope(http.StatusInternalServerError, err.Error()), nil
	}

	if httpResp.StatusCode >= 400 {
		return errorEnvelope(httpResp.StatusCode, upstreamErrorMessage(body)), nil
	}

	return successEnvelope(httpResp, body), nil
}

// buildURL appends only parameters that actually have values; an empty value
// means the caller left the field blank and the upstream default applies.
func (s *ProxyService) buildURL(endpoint string, params map[string]string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	query := url.Values{}
	for name, value := range params {
		if strings.TrimSpace(value) != "" {
			query.Set(name, value)
		}
	}

	target := s.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func successEnvelope(httpResp *http.Response, body []byte) *dto.ExecuteResponse {
	headers := map[string]string{}
	if ct := httpResp.Header.Get("Content-Type"); ct != "" {
		headers["content-type"] = ct
	}

	if isCSVBody(httpResp.Header.Get("Content-Type"), body) {
		return &dto.ExecuteResponse{
			Status:  httpResp.StatusCode,
			Headers: headers,
			IsCsv:   true,
			Message: "CSV response",
			Csv:     string(body),
		}
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		data = string(body)
	}

	return &dto.ExecuteResponse{
		Status:  httpResp.StatusCode,
		Data:    data,
		Headers: headers,
		IsCsv:   false,
	}
}

// upstreamErrorMessage prefers the upstream's {"message": ...} field and falls
// back to the raw body text.
func upstreamErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "upstream request failed"
	}
	return msg
}

func errorEnvelope(status int, message string) *dto.ExecuteResponse {
	return &dto.ExecuteResponse{
		Status:  status,
		Data:    map[string]string{"error": message},
		Headers: map[string]string{},
		IsCsv:   false,
	}
}

// isCSVBody recognizes tabular responses either by content type or by shape:
// a non-JSON body whose lines parse as CSV with a consistent column count.
func isCSVBody(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/csv") {
		return true
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == '<' {
		return false
	}
	if !strings.Contains(trimmed, ",") {
		return false
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return false
	}
	return len(records[0]) >= 2
}
