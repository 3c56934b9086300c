package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSignAndVerify(t *testing.T) {
	s := NewSigner("s3cret", "phone-1", time.Minute)
	token, err := s.Sign()
	require.NoError(t, err)

	claims, err := NewBaseValidator("s3cret").VerifyToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "phone-1", claims.ClientID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner("one", "phone-1", time.Minute).Sign()
	require.NoError(t, err)

	_, err = NewBaseValidator("two").VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := NewSigner("s3cret", "phone-1", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.Sign()
	require.NoError(t, err)

	_, err = NewBaseValidator("s3cret").VerifyToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := NewBaseValidator("s3cret")
	var seen string
	h := NewMiddleware(v, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scan", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := NewSigner("s3cret", "phone-7", time.Minute).Sign()
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scan", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "phone-7", seen)
	})
}
