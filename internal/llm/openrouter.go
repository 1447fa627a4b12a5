package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider speaks the OpenAI-compatible OpenRouter API. Model ids
// are vendor-prefixed ("openai/gpt-4o-mini") and passed through untouched.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	var client *http.Client
	if headers := attributionHeaders(cfg); len(headers) > 0 {
		client = &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}
	}

	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, client)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

func attributionHeaders(cfg OpenRouterConfig) map[string]string {
	h := map[string]string{}
	if cfg.SiteURL != "" {
		h["HTTP-Referer"] = cfg.SiteURL
	}
	if cfg.AppName != "" {
		h["X-Title"] = cfg.AppName
	}
	return h
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
