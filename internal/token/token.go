package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Pair - токены, выданные сервером при входе.
type Pair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

var ErrNoToken = errors.New("no access token")

type Claims struct {
	ExpiresAt time.Time
}

// GetClaims читает claims access-токена без проверки подписи.
// Подпись проверяет сервер, клиенту нужен только срок действия.
func GetClaims(accessToken string) (Claims, error) {
	if accessToken == "" {
		return Claims{}, ErrNoToken
	}
	var registered jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, &registered)
	if err != nil {
		return Claims{}, err
	}
	var claims Claims
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// Expired сообщает, что токен точно истек. Непрозрачные (не JWT) токены
// и токены без exp считаются действующими до ответа 401.
func (p Pair) Expired(now time.Time) bool {
	if p.AccessToken == "" {
		return true
	}
	claims, err := GetClaims(p.AccessToken)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}
