package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "smartguard-client"

// Claims: то, что клиент SmartGuard сообщает о себе бэкенду.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Signer подписывает короткоживущие токены (HS256) для запросов к бэкенду.
type Signer struct {
	secret   []byte
	clientID string
	ttl      time.Duration
	now      func() time.Time
}

func NewSigner(secret, clientID string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Signer{secret: []byte(secret), clientID: clientID, ttl: ttl, now: time.Now}
}

// Sign выпускает новый токен на каждый вызов. Кэшировать нечего: TTL короткий.
func (s *Signer) Sign() (string, error) {
	now := s.now()
	claims := &Claims{
		ClientID: s.clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   s.clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// BaseValidator проверяет HS256 токены, выпущенные Signer.
type BaseValidator struct {
	secret []byte
}

func NewBaseValidator(secret string) *BaseValidator {
	return &BaseValidator{secret: []byte(secret)}
}

// VerifyToken реализует интерфейс TokenValidator.
func (v *BaseValidator) VerifyToken(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(Issuer))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	return claims, nil
}
