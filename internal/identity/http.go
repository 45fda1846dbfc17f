package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPProvider delegates identity to a GoTrue-style REST service
// (Supabase auth and compatible providers). The provider owns token format
// and lifetime; this client only relays credentials and tokens.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	resp, err := p.postJSON(ctx, "/signup", credentialsBody{Email: email, Password: password}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusConflict:
		return "", ErrUserExists
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("identity provider signup returned status %d", resp.StatusCode)
	}
	return "Account created successfully", nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	resp, err := p.postJSON(ctx, "/token?grant_type=password", credentialsBody{Email: email, Password: password}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", ErrBadCredentials
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding identity provider token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", ErrBadCredentials
	}
	return body.AccessToken, nil
}

func (p *HTTPProvider) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("building identity provider request: %w", err)
	}
	p.setHeaders(req, token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", ErrInvalidToken
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding identity provider user response: %w", err)
	}
	if body.ID == "" {
		return "", ErrInvalidToken
	}
	return body.ID, nil
}

func (p *HTTPProvider) postJSON(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding identity provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building identity provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.setHeaders(req, token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	return resp, nil
}

func (p *HTTPProvider) setHeaders(req *http.Request, token string) {
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
