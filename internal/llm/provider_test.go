package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "chat:teacher")
	if p := PurposeFrom(ctx); p != "chat:teacher" {
		t.Fatalf("expected 'chat:teacher', got %q", p)
	}
}

func TestStudentContext(t *testing.T) {
	ctx := context.Background()
	if id := StudentFrom(ctx); id != 0 {
		t.Fatalf("expected 0, got %d", id)
	}
	if id := StudentFrom(WithStudent(ctx, 42)); id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}

func TestMockProvider_LastCall(t *testing.T) {
	mock := NewMockProvider(MockText("one"), MockText("two"))
	if _, ok := mock.LastCall(); ok {
		t.Fatal("expected no calls yet")
	}
	_, _ = mock.Generate(context.Background(), Request{System: "a"})
	resp, _ := mock.Generate(context.Background(), Request{System: "b"})
	last, ok := mock.LastCall()
	if !ok || last.System != "b" {
		t.Fatalf("expected last system 'b', got %q", last.System)
	}
	if resp.Text() != "two" {
		t.Fatalf("expected 'two', got %q", resp.Text())
	}
}

func TestImageDataURL(t *testing.T) {
	img := &Image{Data: "AAAA"}
	if got := img.DataURL(); got != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected data url %q", got)
	}
	img.MediaType = "image/jpeg"
	if got := img.DataURL(); got != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("unexpected data url %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		ok     bool
	}{
		{"rate limit", &ErrRateLimit{}, 429, true},
		{"unavailable", &ErrProviderUnavailable{}, 502, true},
		{"wrapped invalid", fmt.Errorf("turn: %w", &ErrInvalidResponse{Err: errors.New("x")}), 502, true},
		{"other", errors.New("boom"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := HTTPStatus(tt.err)
			if status != tt.status || ok != tt.ok {
				t.Fatalf("HTTPStatus() = %d, %v; want %d, %v", status, ok, tt.status, tt.ok)
			}
		})
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gpt-4o-mini"); c == nil || c.InputPerMTok != 0.15 {
		t.Fatalf("unexpected cost for gpt-4o-mini: %+v", c)
	}
	if c := LookupCost("openai/gpt-4o-mini"); c == nil {
		t.Fatal("expected vendor-prefixed id to resolve")
	}
	if c := LookupCost("unknown-model"); c != nil {
		t.Fatalf("expected nil, got %+v", c)
	}
	got := ModelCost{InputPerMTok: 1, OutputPerMTok: 2}.Cost(1_000_000, 500_000)
	if got != 2 {
		t.Fatalf("expected cost 2, got %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     withProvider("anthropic", nil),
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     withProvider("anthropic", func(c *Config) { c.Anthropic.APIKey = "sk-test" }),
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     withProvider("openai", nil),
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     withProvider("openai", func(c *Config) { c.OpenAI.APIKey = "sk-test" }),
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     withProvider("mock", nil),
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     withProvider("unknown", nil),
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			cfg:     withProvider("mock", func(c *Config) { c.Retry.MaxAttempts = 0 }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func withProvider(name string, mutate func(*Config)) Config {
	cfg := DefaultConfig()
	cfg.Provider = name
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("AIMENTOR_LLM_PROVIDER", "gemini")
	t.Setenv("AIMENTOR_GEMINI_API_KEY", "g-key")
	t.Setenv("AIMENTOR_LLM_TIMEOUT", "5s")
	t.Setenv("AIMENTOR_LLM_MAX_TOKENS", "not-a-number")

	cfg := ConfigFromEnv()
	if cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Timeout.Seconds() != 5 {
		t.Fatalf("expected 5s timeout, got %s", cfg.Timeout)
	}
	if cfg.MaxTokens != DefaultConfig().MaxTokens {
		t.Fatalf("invalid max tokens should keep default, got %d", cfg.MaxTokens)
	}
}

func TestDiscoverConfig_LegacyOpenAIKey(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("OPEN_AI_API_KEY", "sk-legacy")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a provider to be discovered")
	}
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-legacy" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
