package store

import (
	"context"

	"github.com/abhisek/aimentor/internal/expert"
)

// QueryOpts configures event listing.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose filter (empty = all)
}

// StudentRepo manages learner profiles and progress.
type StudentRepo interface {
	// Create inserts a new student owned by accountID (nil for a guest).
	// The student starts with the default expert.
	Create(ctx context.Context, accountID *int64) (*Student, error)

	// Get returns the student or a *NotFoundError.
	Get(ctx context.Context, id int64) (*Student, error)

	// GetByAccount returns the student registered with accountID.
	GetByAccount(ctx context.Context, accountID int64) (*Student, error)

	// List returns all students ordered by id.
	List(ctx context.Context) ([]Student, error)

	// UpdateProfile applies the non-nil fields of u. Recommended topics and
	// blocks are merged by key, never replaced.
	UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) error

	// SetCurrentContent replaces the current topic, block and chapter.
	SetCurrentContent(ctx context.Context, id int64, p ContentPointers) error

	// Approve inserts or overwrites ref in the given progress map.
	Approve(ctx context.Context, id int64, progress Progress, ref Ref) error

	// SetExpert hands the dialogue over to e.
	SetExpert(ctx context.Context, id int64, e expert.Expert) error
}

// AccountRepo manages login credentials.
type AccountRepo interface {
	// GetByLogin returns the account or a *NotFoundError.
	GetByLogin(ctx context.Context, login string) (*Account, error)

	// Register creates an account and a student bound to it in one
	// transaction. Returns ErrConflict when the login is taken.
	Register(ctx context.Context, login, passwordHash string) (*Account, *Student, error)
}

// ChatRepo manages conversation threads and their messages.
type ChatRepo interface {
	// Active returns the student's active chat, creating and linking one
	// if the student has none yet.
	Active(ctx context.Context, studentID int64) (*Chat, error)

	// Get returns the chat or a *NotFoundError.
	Get(ctx context.Context, id int64) (*Chat, error)

	// AppendMessage stores an immutable message.
	AppendMessage(ctx context.Context, chatID int64, role Role, text string) (*Message, error)

	// Messages returns the chat history in creation order.
	Messages(ctx context.Context, chatID int64) ([]Message, error)
}

// ContentRepo reads and seeds the topic/block/chapter catalog.
type ContentRepo interface {
	Topics(ctx context.Context) ([]Topic, error)
	Blocks(ctx context.Context) ([]Block, error)
	Chapters(ctx context.Context) ([]Chapter, error)

	Topic(ctx context.Context, id int64) (*Topic, error)
	Block(ctx context.Context, id int64) (*Block, error)
	Chapter(ctx context.Context, id int64) (*Chapter, error)

	CreateTopic(ctx context.Context, t *Topic) error
	CreateBlock(ctx context.Context, b *Block) error
	CreateChapter(ctx context.Context, c *Chapter) error
}

// EventRepo stores LLM call events.
type EventRepo interface {
	AppendLLMEvent(ctx context.Context, ev LLMEvent) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
