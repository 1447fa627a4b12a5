// Package chat runs a student's dialogue turn: it builds the prompt for the
// expert that owns the conversation, asks the model, and applies the
// commands it returns.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/expert"
	"github.com/abhisek/aimentor/internal/llm"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// Temperature is the sampling temperature used for every turn.
const Temperature = 0.3

// ErrEmptyMessage is returned when the student sends only whitespace.
var ErrEmptyMessage = errors.New("message text is empty")

// PromptBuilder renders the system prompt for an expert.
type PromptBuilder interface {
	Build(ctx context.Context, persona expert.Expert, studentID int64) (string, error)
}

// Executor applies parsed commands.
type Executor interface {
	Execute(ctx context.Context, studentID int64, turn expert.Expert, cmds []command.Command) ([]command.Result, error)
}

// Options tune the model call.
type Options struct {
	// Timeout bounds a single model call. Zero means no extra bound.
	Timeout time.Duration

	// MaxTokens caps the reply length.
	MaxTokens int
}

// Service is the dialogue orchestrator.
type Service struct {
	students store.StudentRepo
	chats    store.ChatRepo
	prompts  PromptBuilder
	provider llm.Provider
	executor Executor
	opts     Options
	log      *logger.Logger
}

// NewService wires the orchestrator.
func NewService(students store.StudentRepo, chats store.ChatRepo, prompts PromptBuilder,
	provider llm.Provider, executor Executor, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		students: students,
		chats:    chats,
		prompts:  prompts,
		provider: provider,
		executor: executor,
		opts:     opts,
		log:      log,
	}
}

// SendMessage runs one turn for studentID. See SendMessageWithImage.
func (s *Service) SendMessage(ctx context.Context, studentID int64, text string) (*Reply, error) {
	return s.SendMessageWithImage(ctx, studentID, text, nil)
}

// SendMessageWithImage runs one turn, attaching img (if any) to the newest
// message of the history sent to the model.
//
// The expert is read once at the start and governs both the prompt and the
// command vocabulary for the whole turn, even if a command hands the
// dialogue over. Any failure aborts the turn without undoing earlier writes.
func (s *Service) SendMessageWithImage(ctx context.Context, studentID int64, text string, img *llm.Image) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	st, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	turn := st.CurrentExpert
	log := s.log.With("student_id", studentID, "expert", turn)

	active, err := s.chats.Active(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("active chat: %w", err)
	}
	if _, err := s.chats.AppendMessage(ctx, active.ID, store.RoleUser, text); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	system, err := s.prompts.Build(ctx, turn, studentID)
	if err != nil {
		return nil, fmt.Errorf("build %s prompt: %w", turn, err)
	}

	history, err := s.chats.Messages(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	raw, err := s.generate(ctx, studentID, turn, system, history, img)
	if err != nil {
		log.Error("model call failed", "error", err)
		return nil, err
	}

	reply := ParseReply(raw, log)

	if _, err := s.chats.AppendMessage(ctx, active.ID, store.RoleAssistant, reply.UserMessage); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	results, err := s.executor.Execute(ctx, studentID, turn, reply.Commands)
	reply.Results = results
	if err != nil {
		return &reply, fmt.Errorf("execute commands: %w", err)
	}

	log.Info("turn complete", "chat_id", active.ID, "commands", len(reply.Commands))
	return &reply, nil
}

func (s *Service) generate(ctx context.Context, studentID int64, turn expert.Expert,
	system string, history []store.Message, img *llm.Image) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "chat:"+turn.String())
	ctx = llm.WithStudent(ctx, studentID)

	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: llm.Role(m.Role), Content: m.Text})
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    msgs,
		Image:       img,
		JSONObject:  true,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return resp.Text(), nil
}
