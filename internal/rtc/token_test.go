package rtc_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/rtc"
)

func parseToken(t *testing.T, signed, secret string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, token.Method)
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return token.Claims.(jwt.MapClaims)
}

func TestTokenMinter_ForcedAudioGrantsPublish(t *testing.T) {
	minter := rtc.NewTokenMinter("api-key", "api-secret")

	signed, err := minter.Mint("table-11", "user-7", "user-7", domain.ModeForcedAudio)
	require.NoError(t, err)

	claims := parseToken(t, signed, "api-secret")
	assert.Equal(t, "api-key", claims["iss"])
	assert.Equal(t, "user-7", claims["sub"])

	video := claims["video"].(map[string]interface{})
	assert.Equal(t, "table-11", video["room"])
	assert.Equal(t, true, video["room_join"])
	assert.Equal(t, true, video["can_publish"])
	assert.Equal(t, true, video["can_subscribe"])
	assert.Equal(t, true, video["can_publish_data"])
}

func TestTokenMinter_QuietModeDeniesPublish(t *testing.T) {
	minter := rtc.NewTokenMinter("api-key", "api-secret")

	signed, err := minter.Mint("table-11", "user-7", "user-7", domain.ModeQuiet)
	require.NoError(t, err)

	video := parseToken(t, signed, "api-secret")["video"].(map[string]interface{})
	assert.Equal(t, false, video["can_publish"], "quiet tables never grant publish")
	assert.Equal(t, true, video["can_subscribe"])
}

func TestTokenMinter_TwoHourExpiry(t *testing.T) {
	minter := rtc.NewTokenMinter("api-key", "api-secret")

	signed, err := minter.Mint("table-11", "user-7", "user-7", domain.ModeForcedAudio)
	require.NoError(t, err)

	claims := parseToken(t, signed, "api-secret")
	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	iat := time.Unix(int64(claims["iat"].(float64)), 0)
	assert.Equal(t, rtc.AccessTokenTTL, exp.Sub(iat))
}
