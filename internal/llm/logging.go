package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// EventRecorder persists one row per LLM call.
type EventRecorder interface {
	AppendLLMEvent(ctx context.Context, ev store.LLMEvent) error
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   EventRecorder
	log      *logger.Logger
}

// WithLogging wraps a Provider with event logging. events may be nil, in
// which case calls are only written to the structured log.
func WithLogging(p Provider, providerName string, events EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.NewNop()
	}
	return &LoggingProvider{inner: p, provider: providerName, events: events, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMEvent{
		Timestamp:   start.UTC(),
		StudentID:   StudentFrom(ctx),
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = string(resp.Content)
	}

	if err != nil {
		ev.ErrorMessage = err.Error()
		l.log.Warn("llm request failed",
			"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
			"latency_ms", ev.LatencyMs, "error", ev.ErrorMessage)
	} else {
		l.log.Debug("llm request",
			"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
			"input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens,
			"latency_ms", ev.LatencyMs)
	}

	// A failed event write never fails the request.
	if l.events != nil {
		if logErr := l.events.AppendLLMEvent(ctx, ev); logErr != nil {
			l.log.Warn("failed to record llm event", "error", logErr.Error())
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Image != nil {
		b.WriteString(fmt.Sprintf("[image: %s, %d base64 bytes]\n\n", req.Image.mediaType(), len(req.Image.Data)))
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
