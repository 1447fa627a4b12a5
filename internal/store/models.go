package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/abhisek/aimentor/internal/expert"
)

// IDNameMap maps an entity id to its display name. Serialized as a JSON
// object with string keys, e.g. {"3":"Go basics"}.
type IDNameMap map[int64]string

// Ref names a single catalog entity.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Single returns the only entry of a current-content pointer.
func (m IDNameMap) Single() (Ref, bool) {
	for id, name := range m {
		return Ref{ID: id, Name: name}, true
	}
	return Ref{}, false
}

// Refs returns the entries ordered by id.
func (m IDNameMap) Refs() []Ref {
	out := make([]Ref, 0, len(m))
	for id, name := range m {
		out = append(out, Ref{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pointer builds the singleton map stored in a current-content column.
func Pointer(r Ref) IDNameMap {
	return IDNameMap{r.ID: r.Name}
}

// Account holds login credentials. PasswordHash is a bcrypt hash.
type Account struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Student is the learner profile and progress record.
type Student struct {
	ID            int64         `json:"id"`
	AccountID     *int64        `json:"account_id"`
	CurrentExpert expert.Expert `json:"current_expert"`

	CurrentTopic   IDNameMap `json:"current_topic"`
	CurrentBlock   IDNameMap `json:"current_block"`
	CurrentChapter IDNameMap `json:"current_chapter"`

	ProgrammingExperience string `json:"programming_experience"`
	EducationBackground   string `json:"education_background"`
	LearningGoals         string `json:"learning_goals"`
	CareerGoals           string `json:"career_goals"`
	Timeline              string `json:"timeline"`
	LearningStyle         string `json:"learning_style"`
	LessonDuration        string `json:"lesson_duration"`
	PreferredDifficulty   string `json:"preferred_difficulty"`

	RecommendedTopics IDNameMap `json:"recommended_topics"`
	RecommendedBlocks IDNameMap `json:"recommended_blocks"`
	ApprovedTopics    IDNameMap `json:"approved_topics"`
	ApprovedBlocks    IDNameMap `json:"approved_blocks"`
	ApprovedChapters  IDNameMap `json:"approved_chapters"`

	AssessmentScore *int     `json:"assessment_score"`
	StrongAreas     []string `json:"strong_areas"`
	WeakAreas       []string `json:"weak_areas"`

	ActiveChatID *int64    `json:"active_chat_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial update of a student's background. Nil fields
// are left untouched.
type ProfileUpdate struct {
	ProgrammingExperience *string
	EducationBackground   *string
	LearningGoals         *string
	CareerGoals           *string
	Timeline              *string
	LearningStyle         *string
	LessonDuration        *string
	PreferredDifficulty   *string
	AssessmentScore       *int
	StrongAreas           []string
	WeakAreas             []string
	RecommendedTopics     IDNameMap
	RecommendedBlocks     IDNameMap
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.ProgrammingExperience == nil && u.EducationBackground == nil &&
		u.LearningGoals == nil && u.CareerGoals == nil && u.Timeline == nil &&
		u.LearningStyle == nil && u.LessonDuration == nil && u.PreferredDifficulty == nil &&
		u.AssessmentScore == nil && u.StrongAreas == nil && u.WeakAreas == nil &&
		len(u.RecommendedTopics) == 0 && len(u.RecommendedBlocks) == 0
}

// ContentPointers is the new current topic/block/chapter selection.
type ContentPointers struct {
	Topic   Ref
	Block   Ref
	Chapter Ref
}

// Progress names one of the approved-progress maps.
type Progress string

const (
	ApprovedTopics   Progress = "approved_topics"
	ApprovedBlocks   Progress = "approved_blocks"
	ApprovedChapters Progress = "approved_chapters"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Chat is a conversation thread owned by one student.
type Chat struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is an immutable chat entry.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Topic is the top level of the content catalog.
type Topic struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IntroFileID   string    `json:"intro_file_id"`
	EduPlanFileID string    `json:"edu_plan_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Block belongs to a topic.
type Block struct {
	ID            int64     `json:"id"`
	TopicID       int64     `json:"topic_id"`
	Name          string    `json:"name"`
	ContentFileID string    `json:"content_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Chapter belongs to a block (and, redundantly, to the block's topic).
type Chapter struct {
	ID            int64     `json:"id"`
	TopicID       int64     `json:"topic_id"`
	BlockID       int64     `json:"block_id"`
	Name          string    `json:"name"`
	ContentFileID string    `json:"content_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LLMEvent records a single generation backend call.
type LLMEvent struct {
	ID           int64
	Timestamp    time.Time
	StudentID    int64
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsage aggregates token usage for a purpose or a model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// encodeJSON serializes a JSON column value; nil maps and slices become NULL.
func encodeJSON(v any) (any, error) {
	switch t := v.(type) {
	case IDNameMap:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
