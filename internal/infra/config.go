package infra

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config: корневая структура конфигурации клиента SmartGuard и dev-бэкенда.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Mock        MockConfig        `mapstructure:"mock"`
}

// APIConfig описывает подключение к бэкенду сканирования/предсказаний.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// 0 значит ждем ответа бесконечно (поведение по умолчанию)
	Timeout     time.Duration `mapstructure:"timeout"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// ReliabilityConfig: настройки обертки надежности вокруг бэкенда.
type ReliabilityConfig struct {
	RetryAttempts uint    `mapstructure:"retry_attempts"`
	RateLimit     float64 `mapstructure:"rate_limit"` // запросов в секунду, 0 без ограничений
	RateBurst     int     `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker
	CBMaxRequests      uint32        `mapstructure:"cb_max_requests"`
	CBInterval         time.Duration `mapstructure:"cb_interval"`
	CBTimeout          time.Duration `mapstructure:"cb_timeout"`
	CBFailureThreshold uint32        `mapstructure:"cb_failure_threshold"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // путь к файлу, stdout или stderr
}

// MetricsConfig: адрес для /metrics. Пустой адрес отключает экспорт.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// MockConfig описывает dev-бэкенд, повторяющий контракт /scan и /predict.
type MockConfig struct {
	Addr             string          `mapstructure:"addr"`
	Baseline         float64         `mapstructure:"baseline"`
	AnomalyThreshold float64         `mapstructure:"anomaly_threshold"`
	Latency          time.Duration   `mapstructure:"latency"`
	Devices          []DeviceFixture `mapstructure:"devices"`

	// Непустое значение: /scan отвечает 200 с полем error, как при сбое ARP
	ScanError string `mapstructure:"scan_error"`
}

// DeviceFixture: устройство, которое dev-бэкенд вернет на /scan.
type DeviceFixture struct {
	ID              string   `mapstructure:"id"`
	Name            string   `mapstructure:"name"`
	Traffic         float64  `mapstructure:"traffic"`
	Status          string   `mapstructure:"status"`
	Vulnerabilities []string `mapstructure:"vulnerabilities"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// API_BASE_URL=http://10.0.0.5:8000 перекроет api.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет, работаем на ENV и дефолтах
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("api.token_secret", "")
	v.SetDefault("api.token_ttl", 5*time.Minute)

	v.SetDefault("reliability.retry_attempts", 1)
	v.SetDefault("reliability.rate_limit", 0)
	v.SetDefault("reliability.rate_burst", 1)
	v.SetDefault("reliability.cb_max_requests", 3)
	v.SetDefault("reliability.cb_interval", 5*time.Second)
	v.SetDefault("reliability.cb_timeout", 30*time.Second)
	v.SetDefault("reliability.cb_failure_threshold", 5)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "smartguard.log")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("mock.addr", ":8000")
	v.SetDefault("mock.baseline", 10.0)
	v.SetDefault("mock.anomaly_threshold", 9.0)
	v.SetDefault("mock.latency", time.Duration(0))
	v.SetDefault("mock.scan_error", "")
}

// Validate проверяет то, без чего клиент не сможет сделать ни одного запроса.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url: expected absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Reliability.RetryAttempts == 0 {
		c.Reliability.RetryAttempts = 1
	}
	return nil
}
