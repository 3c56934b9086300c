package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/infra"
)

func newAdapter(t *testing.T, h http.HandlerFunc) *HTTPAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPAdapter(infra.APIConfig{BaseURL: srv.URL}, nil)
}

func TestScanReturnsDevicesInOrder(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/scan", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(infra.TraceHeader))
		w.Write([]byte(`{"devices":[
			{"id":"1","name":"Router","traffic":12.5,"status":"Online","vulnerabilities":["Weak Password"]},
			{"id":"2","name":"Camera","traffic":3,"status":"Offline","vulnerabilities":[]}
		]}`))
	})

	devices, err := a.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, domain.Device{
		ID: "1", Name: "Router", Traffic: 12.5, Status: "Online",
		Vulnerabilities: []string{"Weak Password"},
	}, devices[0])
	assert.Equal(t, "Camera", devices[1].Name)
}

func TestScanEmptyAndMissingDevices(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	devices, err := a.Scan(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestScanBackendReportedError(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[],"error":"no route to 8.8.8.8"}`))
	})

	_, err := a.Scan(context.Background())
	var sf *ScanFailedError
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, "no route to 8.8.8.8", sf.Reason)
}

func TestScanNonSuccessStatus(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := a.Scan(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Code)
	assert.Nil(t, se.Envelope)
	assert.Equal(t, "HTTP error! Status: 500", err.Error())
	assert.True(t, se.Temporary())
}

func TestStatusErrorEnvelope(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(domain.ErrorEnvelope{Error: "invalid_request", Reason: "traffic is required"})
	})

	_, err := a.Predict(context.Background(), 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.NotNil(t, se.Envelope)
	assert.Equal(t, "traffic is required", se.Envelope.Reason)
	assert.Equal(t, "HTTP error! Status: 400: invalid_request", err.Error())
	assert.False(t, se.Temporary())
}

func TestThrottleError(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.Scan(context.Background())
	var te *ThrottleError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2*time.Second, te.RetryAfter)

	var se *StatusError
	assert.ErrorAs(t, err, &se)
}

func TestScanMalformedBody(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices": [`))
	})

	_, err := a.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan: malformed response body")
}

func TestPredictSendsTrafficJSON(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.PredictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 12.5, req.Traffic)

		w.Write([]byte(`{"prediction":0.1,"is_anomaly":false,"status":"Normal"}`))
	})

	resp, err := a.Predict(context.Background(), 12.5)
	require.NoError(t, err)
	assert.Equal(t, &domain.PredictionResponse{Prediction: 0.1, IsAnomaly: false, Status: "Normal"}, resp)
}

type staticToken string

func (s staticToken) Sign() (string, error) { return string(s), nil }

type brokenToken struct{}

func (brokenToken) Sign() (string, error) { return "", errors.New("no key") }

func TestBearerTokenAndTraceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-42", r.Header.Get(infra.TraceHeader))
		w.Write([]byte(`{"devices":[]}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(infra.APIConfig{BaseURL: srv.URL}, staticToken("tkn"))
	_, err := a.Scan(infra.WithTraceID(context.Background(), "trace-42"))
	require.NoError(t, err)

	a = NewHTTPAdapter(infra.APIConfig{BaseURL: srv.URL}, brokenToken{})
	_, err = a.Scan(context.Background())
	assert.ErrorContains(t, err, "no key")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewHTTPAdapter(infra.APIConfig{BaseURL: url}, nil)
	_, err := a.Predict(context.Background(), 1)
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestConfiguredTimeout(t *testing.T) {
	a := NewHTTPAdapter(infra.APIConfig{BaseURL: "http://localhost:8000"}, nil)
	assert.Zero(t, a.client.Timeout)

	a = NewHTTPAdapter(infra.APIConfig{BaseURL: "http://localhost:8000", Timeout: time.Second}, nil)
	assert.Equal(t, time.Second, a.client.Timeout)
}
