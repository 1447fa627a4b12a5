package chat

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/logger"
)

// Fallback messages shown to the student when a reply cannot be used.
const (
	FallbackInvalidJSON    = "Извините, произошла ошибка обработки ответа. Попробуйте переформулировать вопрос."
	FallbackMissingMessage = "Извините, произошла ошибка обработки ответа. Попробуйте еще раз."
	FallbackSystemError    = "Произошла системная ошибка. Обратитесь к администратору."
)

// Reply is the outcome of a dialogue turn.
type Reply struct {
	UserMessage string            `json:"user_message"`
	Commands    []command.Command `json:"commands"`
	Results     []command.Result  `json:"results,omitempty"`
}

// ParseReply extracts the student-facing message and commands from raw
// model output. It never fails: unusable output yields a fallback message
// and no commands.
func ParseReply(raw string, log *logger.Logger) (reply Reply) {
	if log == nil {
		log = logger.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("unexpected failure parsing model reply", "panic", r)
			reply = fallback(FallbackSystemError)
		}
	}()

	text := stripFence(raw)

	parsed, err := decodeJSON(text)
	if err != nil {
		log.Error("model reply is not valid JSON", "error", err, "response", raw)
		return fallback(FallbackInvalidJSON)
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		log.Warn("model reply is not a JSON object", "response", raw)
		return fallback(FallbackMissingMessage)
	}

	msg, ok := obj["user_message"].(string)
	if !ok || strings.TrimSpace(msg) == "" {
		log.Warn("model reply has no user_message", "response", raw)
		return fallback(FallbackMissingMessage)
	}

	return Reply{UserMessage: msg, Commands: extractCommands(obj["metadata"], log)}
}

func fallback(msg string) Reply {
	return Reply{UserMessage: msg, Commands: []command.Command{}}
}

// stripFence removes a surrounding markdown code fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeJSON decodes exactly one JSON value, keeping numbers exact.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// extractCommands returns the schema-valid entries of metadata.commands in
// order. A missing metadata object or commands list yields no commands.
func extractCommands(metadata any, log *logger.Logger) []command.Command {
	cmds := []command.Command{}

	meta, ok := metadata.(map[string]any)
	if !ok {
		return cmds
	}
	entries, ok := meta["commands"].([]any)
	if !ok {
		if meta["commands"] != nil {
			log.Warn("metadata.commands is not a list", "commands", meta["commands"])
		}
		return cmds
	}

	schema := command.Schema()
	for i, entry := range entries {
		if err := schema.Validate(entry); err != nil {
			log.Warn("dropping invalid command entry", "index", i, "entry", entry, "error", err)
			continue
		}
		obj := entry.(map[string]any)
		c := command.Command{
			Name:   obj["name"].(string),
			Params: obj["params"].(map[string]any),
		}
		if d, ok := obj["description"].(string); ok {
			c.Description = d
		}
		cmds = append(cmds, c)
	}
	return cmds
}
