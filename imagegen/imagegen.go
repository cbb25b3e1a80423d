// Package imagegen fetches a decorative background for a match from
// an external generator. It is strictly best-effort: match creation
// and gameplay never wait on it and the fallback is always usable.
package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const FallbackURL = "/assets/backgrounds/ocean_default.png"

const requestTimeout = time.Second * 5

type Provider interface {
	Generate(ctx context.Context, matchUuid string) (string, error)
}

// HTTPProvider asks a remote generator service for an image url.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (hp *HTTPProvider) Generate(ctx context.Context, matchUuid string) (string, error) {
	reqURL := fmt.Sprintf("%s?match=%s", hp.baseURL, url.QueryEscape(matchUuid))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := hp.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image generator returned status %d", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("image generator returned an empty url")
	}

	return body.URL, nil
}

// StaticProvider always serves one url. Used when no generator
// service is configured and in tests.
type StaticProvider struct {
	URL string
}

var _ Provider = (*StaticProvider)(nil)

func (sp *StaticProvider) Generate(_ context.Context, _ string) (string, error) {
	return sp.URL, nil
}
