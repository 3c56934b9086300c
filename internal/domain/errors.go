package domain

// ErrorEnvelope: формат ошибки бэкенда для не-2xx ответов.
// {"error": "invalid_request", "reason": "traffic is required"}
type ErrorEnvelope struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
