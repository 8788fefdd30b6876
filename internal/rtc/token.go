package rtc

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// AccessTokenTTL bounds every participant credential.
const AccessTokenTTL = 2 * time.Hour

// TokenMinter issues the signed, time-bounded room credentials handed to
// clients. Publish permission follows the table mode: forced-audio tables
// may publish, quiet tables may not. Subscribe and data-channel access are
// always granted.
type TokenMinter struct {
	apiKey    string
	apiSecret string
}

// NewTokenMinter creates a TokenMinter instance.
func NewTokenMinter(apiKey, apiSecret string) *TokenMinter {
	if apiKey == "" || apiSecret == "" {
		panic("apiKey and apiSecret are required for TokenMinter")
	}
	return &TokenMinter{apiKey: apiKey, apiSecret: apiSecret}
}

// Mint issues a room access token for one participant identity.
func (m *TokenMinter) Mint(roomName, identity, displayName string, mode domain.SessionMode) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  m.apiKey,
		"sub":  identity,
		"name": displayName,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
		"video": map[string]interface{}{
			"room":             roomName,
			"room_join":        true,
			"can_publish":      mode == domain.ModeForcedAudio,
			"can_subscribe":    true,
			"can_publish_data": true,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.apiSecret))
	if err != nil {
		return "", fmt.Errorf("%w: sign access token for %s: %v", ErrProvider, identity, err)
	}
	return signed, nil
}
