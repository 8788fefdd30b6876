package rtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

const (
	providerTimeout = 10 * time.Second
	adminTokenTTL   = time.Minute
)

// HTTPProvider talks to the room provider's REST API. Requests carry a
// short-lived HS256 admin token signed with the API secret.
type HTTPProvider struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

// NewHTTPProvider creates an HTTPProvider instance.
func NewHTTPProvider(baseURL, apiKey, apiSecret string) *HTTPProvider {
	if baseURL == "" || apiKey == "" || apiSecret == "" {
		panic("baseURL, apiKey and apiSecret are required for HTTPProvider")
	}
	return &HTTPProvider{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: providerTimeout},
	}
}

type createRoomRequest struct {
	Name            string `json:"name"`
	MaxParticipants int    `json:"max_participants"`
	Metadata        string `json:"metadata"`
}

// CreateRoom provisions a room sized to the session's seat count.
func (p *HTTPProvider) CreateRoom(ctx context.Context, name string, maxParticipants int, metadata string) (*Room, error) {
	body, err := json.Marshal(createRoomRequest{
		Name:            name,
		MaxParticipants: maxParticipants,
		Metadata:        metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode create request: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build create request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := p.authorize(req); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: create room %s: %v", ErrProvider, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: create room %s: provider returned %d", ErrProvider, name, resp.StatusCode)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("%w: decode create response for %s: %v", ErrProvider, name, err)
	}
	return &room, nil
}

// DeleteRoom tears down a room. A 404 means the room is already gone,
// which is success for our purposes.
func (p *HTTPProvider) DeleteRoom(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/rooms/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("%w: build delete request: %v", ErrProvider, err)
	}
	if err := p.authorize(req); err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: delete room %s: %v", ErrProvider, name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		logrus.WithField("room", name).Debug("Room already absent on delete, treating as success")
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("%w: delete room %s: provider returned %d", ErrProvider, name, resp.StatusCode)
	}
}

// authorize attaches a short-lived admin token to the request.
func (p *HTTPProvider) authorize(req *http.Request) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   p.apiKey,
		"iat":   now.Unix(),
		"exp":   now.Add(adminTokenTTL).Unix(),
		"admin": true,
	})
	signed, err := token.SignedString([]byte(p.apiSecret))
	if err != nil {
		return fmt.Errorf("%w: sign admin token: %v", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}
