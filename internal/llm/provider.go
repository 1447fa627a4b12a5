package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction.
// The mentor dialogue calls Generate once per student turn.
type Provider interface {
	// Generate sends the conversation to the LLM and returns its reply.
	// When the request carries a Schema the provider asks for output
	// conforming to it and validates the result.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. For the mentor this is the persona
	// prompt assembled for the student's current expert.
	System string

	// Messages is the conversation history in chronological order.
	Messages []Message

	// Image, when set, is attached to the last message of the history.
	Image *Image

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is the raw model text.
	Schema *Schema

	// JSONObject asks the provider for a syntactically valid JSON object
	// without enforcing a particular schema. Ignored when Schema is set.
	JSONObject bool

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Image is an inline image attachment. Data is base64 encoded.
type Image struct {
	MediaType string // e.g. "image/png"
	Data      string
}

// DataURL renders the image as a data: URL.
func (i *Image) DataURL() string {
	return "data:" + i.mediaType() + ";base64," + i.Data
}

func (i *Image) mediaType() string {
	if i.MediaType == "" {
		return "image/png"
	}
	return i.MediaType
}

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as the schema name for OpenAI and
	// as the cache key for compiled validators). Kebab-case.
	Name string

	// Description is a human-readable description of what this schema
	// represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output: validated JSON when a Schema was
	// provided, otherwise the raw text the model produced.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Text returns the response content as a string.
func (r *Response) Text() string {
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
