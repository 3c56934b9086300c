package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/infra"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ScanError != "" {
		s.logger.Error("scan failed", zap.String("reason", s.cfg.ScanError))
		writeJSON(w, http.StatusOK, domain.ScanResponse{Devices: []domain.Device{}, Error: s.cfg.ScanError})
		return
	}

	devices := s.Devices()
	s.logger.Info("scan served",
		zap.String("trace_id", infra.TraceID(r.Context())),
		zap.Int("devices", len(devices)))
	writeJSON(w, http.StatusOK, domain.ScanResponse{Devices: devices})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req domain.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.ErrorEnvelope{Error: "invalid_request", Reason: err.Error()})
		return
	}

	resp := Score(req.Traffic, s.cfg.Baseline, s.cfg.AnomalyThreshold)
	s.logger.Info("prediction",
		zap.String("trace_id", infra.TraceID(r.Context())),
		zap.Float64("traffic", req.Traffic),
		zap.Float64("prediction", resp.Prediction),
		zap.Bool("is_anomaly", resp.IsAnomaly))
	writeJSON(w, http.StatusOK, resp)
}

// Score: квадрат отклонения трафика от нормы; выше порога считаем аномалией.
func Score(traffic, baseline, threshold float64) *domain.PredictionResponse {
	d := traffic - baseline
	p := d * d
	resp := &domain.PredictionResponse{Prediction: p, IsAnomaly: p > threshold, Status: domain.StatusNormal}
	if resp.IsAnomaly {
		resp.Status = domain.StatusSuspicious
	}
	return resp
}

// latency имитирует медленный бэкенд, но отпускает запрос при отмене.
func (s *Server) latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := time.NewTimer(s.cfg.Latency)
		defer t.Stop()
		select {
		case <-t.C:
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			s.logger.Debug("request abandoned by client", zap.String("path", r.URL.Path))
		}
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
