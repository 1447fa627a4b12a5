package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/aimentor/internal/expert"
	"github.com/abhisek/aimentor/internal/store"
)

// ID is a catalog id that accepts either a JSON number or a numeric string.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id %s is not an integer", b)
	}
	*id = ID(n)
	return nil
}

// Score is an assessment score that accepts a JSON number or numeric string.
type Score int

func (s *Score) UnmarshalJSON(b []byte) error {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("assessment score: %w", err)
	}
	*s = Score(id)
	return nil
}

// StringList accepts a list of strings or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if strings.TrimSpace(one) == "" {
			*l = StringList{}
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.New("expected a string or a list of strings")
	}
	*l = many
	return nil
}

// CredentialsParams carries register_student and login_student arguments.
type CredentialsParams struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SwitchParams carries switch_to_next_expert arguments.
type SwitchParams struct {
	NextExpert string `json:"next_expert"`
}

// BackgroundParams carries update_student_background arguments. Absent
// fields leave the stored value untouched.
type BackgroundParams struct {
	ProgrammingExperience *string         `json:"programming_experience"`
	EducationBackground   *string         `json:"education_background"`
	LearningGoals         *string         `json:"learning_goals"`
	CareerGoals           *string         `json:"career_goals"`
	Timeline              *string         `json:"timeline"`
	LearningStyle         *string         `json:"learning_style"`
	LessonDuration        *string         `json:"lesson_duration"`
	PreferredDifficulty   *string         `json:"preferred_difficulty"`
	AssessmentScore       *Score          `json:"assessment_score"`
	StrongAreas           *StringList     `json:"strong_areas"`
	WeakAreas             *StringList     `json:"weak_areas"`
	RecommendedTopics     store.IDNameMap `json:"recommended_topics"`
	RecommendedBlocks     store.IDNameMap `json:"recommended_blocks"`
}

// ChangeContentParams carries change_edu_content arguments.
type ChangeContentParams struct {
	TopicID     *ID    `json:"topic_id"`
	TopicName   string `json:"topic_name"`
	BlockID     *ID    `json:"block_id"`
	BlockName   string `json:"block_name"`
	ChapterID   *ID    `json:"chapter_id"`
	ChapterName string `json:"chapter_name"`
}

// ApproveTopicParams carries approve_topic arguments.
type ApproveTopicParams struct {
	TopicID   *ID    `json:"topic_id"`
	TopicName string `json:"topic_name"`
}

// ApproveBlockParams carries approve_block arguments.
type ApproveBlockParams struct {
	BlockID   *ID    `json:"block_id"`
	BlockName string `json:"block_name"`
}

// ApproveChapterParams carries approve_chapter arguments.
type ApproveChapterParams struct {
	ChapterID   *ID    `json:"chapter_id"`
	ChapterName string `json:"chapter_name"`
}

// decode re-encodes the untyped params into the typed struct for name.
func decode(name string, params map[string]any, dst any) error {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return malformed(name, "encode params: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed(name, "%v", err)
	}
	return nil
}

func decodeCredentials(c Command) (CredentialsParams, error) {
	var p CredentialsParams
	if err := decode(c.Name, c.Params, &p); err != nil {
		return p, err
	}
	p.Login = strings.TrimSpace(p.Login)
	if p.Login == "" {
		return p, malformed(c.Name, "login is required")
	}
	if p.Password == "" {
		return p, malformed(c.Name, "password is required")
	}
	return p, nil
}

func decodeSwitch(c Command) (expert.Expert, error) {
	var p SwitchParams
	if err := decode(c.Name, c.Params, &p); err != nil {
		return "", err
	}
	next, err := expert.Parse(p.NextExpert)
	if err != nil {
		return "", &MalformedCommandError{Command: c.Name, Err: err}
	}
	return next, nil
}

func decodeBackground(c Command) (store.ProfileUpdate, error) {
	var p BackgroundParams
	if err := decode(c.Name, c.Params, &p); err != nil {
		return store.ProfileUpdate{}, err
	}
	u := store.ProfileUpdate{
		ProgrammingExperience: p.ProgrammingExperience,
		EducationBackground:   p.EducationBackground,
		LearningGoals:         p.LearningGoals,
		CareerGoals:           p.CareerGoals,
		Timeline:              p.Timeline,
		LearningStyle:         p.LearningStyle,
		LessonDuration:        p.LessonDuration,
		PreferredDifficulty:   p.PreferredDifficulty,
		RecommendedTopics:     p.RecommendedTopics,
		RecommendedBlocks:     p.RecommendedBlocks,
	}
	if p.AssessmentScore != nil {
		score := int(*p.AssessmentScore)
		if score < 0 || score > 100 {
			return u, malformed(c.Name, "assessment score %d out of range 0..100", score)
		}
		u.AssessmentScore = &score
	}
	if p.StrongAreas != nil {
		u.StrongAreas = []string(*p.StrongAreas)
	}
	if p.WeakAreas != nil {
		u.WeakAreas = []string(*p.WeakAreas)
	}
	if u.Empty() {
		return u, malformed(c.Name, "no profile fields given")
	}
	return u, nil
}

func decodeChangeContent(c Command) (store.ContentPointers, error) {
	var p ChangeContentParams
	if err := decode(c.Name, c.Params, &p); err != nil {
		return store.ContentPointers{}, err
	}
	switch {
	case p.TopicID == nil:
		return store.ContentPointers{}, malformed(c.Name, "topic_id is required")
	case p.BlockID == nil:
		return store.ContentPointers{}, malformed(c.Name, "block_id is required")
	case p.ChapterID == nil:
		return store.ContentPointers{}, malformed(c.Name, "chapter_id is required")
	}
	return store.ContentPointers{
		Topic:   store.Ref{ID: int64(*p.TopicID), Name: p.TopicName},
		Block:   store.Ref{ID: int64(*p.BlockID), Name: p.BlockName},
		Chapter: store.Ref{ID: int64(*p.ChapterID), Name: p.ChapterName},
	}, nil
}

// decodeApproval returns the progress map and entry an approve_* command
// targets.
func decodeApproval(c Command) (store.Progress, store.Ref, error) {
	var (
		progress store.Progress
		id       *ID
		name     string
	)
	switch c.Name {
	case ApproveTopic:
		var p ApproveTopicParams
		if err := decode(c.Name, c.Params, &p); err != nil {
			return "", store.Ref{}, err
		}
		progress, id, name = store.ApprovedTopics, p.TopicID, p.TopicName
	case ApproveBlock:
		var p ApproveBlockParams
		if err := decode(c.Name, c.Params, &p); err != nil {
			return "", store.Ref{}, err
		}
		progress, id, name = store.ApprovedBlocks, p.BlockID, p.BlockName
	case ApproveChapter:
		var p ApproveChapterParams
		if err := decode(c.Name, c.Params, &p); err != nil {
			return "", store.Ref{}, err
		}
		progress, id, name = store.ApprovedChapters, p.ChapterID, p.ChapterName
	default:
		return "", store.Ref{}, malformed(c.Name, "not an approval command")
	}
	if id == nil {
		return "", store.Ref{}, malformed(c.Name, "id is required")
	}
	return progress, store.Ref{ID: int64(*id), Name: name}, nil
}
