package domain

// PredictRequest: тело POST /predict.
type PredictRequest struct {
	Traffic float64 `json:"traffic"`
}

// PredictionResponse: результат проверки поведения по одному замеру трафика.
type PredictionResponse struct {
	Prediction float64 `json:"prediction"`
	IsAnomaly  bool    `json:"is_anomaly"`
	Status     string  `json:"status"` // показывается пользователю как есть
}

const (
	StatusNormal     = "Normal Behavior"
	StatusSuspicious = "Suspicious Activity Detected"
)
