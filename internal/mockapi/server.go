package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/infra"
	"github.com/xela07ax/smartguard/internal/infra/auth"
)

// defaultFleet: сколько устройств отдаем, если фикстуры не заданы в конфиге.
const defaultFleet = 5

// Server: dev-бэкенд, повторяющий контракт /scan и /predict.
type Server struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     infra.MockConfig
	devices []domain.Device

	// nil, если проверка токена выключена
	authValidator auth.TokenValidator
}

// NewServer собирает роутер. При пустом secret эндпоинты открыты.
func NewServer(cfg infra.MockConfig, secret string, logger *zap.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger.Named("mock-api"),
		cfg:     cfg,
		devices: fixtures(cfg.Devices),
	}
	if secret != "" {
		s.authValidator = auth.NewBaseValidator(secret)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(infra.TracingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		if s.authValidator != nil {
			r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		}
		if s.cfg.Latency > 0 {
			r.Use(s.latency)
		}

		r.Get("/scan", s.handleScan)
		r.Post("/predict", s.handlePredict)
	})
}

// Devices возвращает устройства, которые сервер отдает на /scan.
func (s *Server) Devices() []domain.Device {
	out := make([]domain.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func fixtures(in []infra.DeviceFixture) []domain.Device {
	if len(in) == 0 {
		return connectors.RandomDevices(defaultFleet)
	}
	out := make([]domain.Device, 0, len(in))
	for _, f := range in {
		vulns := f.Vulnerabilities
		if vulns == nil {
			vulns = []string{}
		}
		out = append(out, domain.Device{
			ID:              f.ID,
			Name:            f.Name,
			Traffic:         f.Traffic,
			Status:          f.Status,
			Vulnerabilities: vulns,
		})
	}
	return out
}
