// Package catalog renders the topic/block/chapter catalog as the JSON
// documents embedded in onboarding prompts.
package catalog

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/abhisek/aimentor/internal/store"
)

// Header introduces the catalog fragment inside a prompt.
const Header = "СОДЕРЖАНИЕ ОБУЧАЮЩЕГО МАТЕРИАЛА:"

type topicView struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IntroFileID   *string   `json:"intro_file_id"`
	EduPlanFileID *string   `json:"edu_plan_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type blockView struct {
	ID            int64     `json:"id"`
	TopicID       int64     `json:"topic_id"`
	Name          string    `json:"name"`
	ContentFileID *string   `json:"content_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type chapterView struct {
	ID            int64     `json:"id"`
	TopicID       int64     `json:"topic_id"`
	BlockID       int64     `json:"block_id"`
	Name          string    `json:"name"`
	ContentFileID *string   `json:"content_file_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type flatDoc struct {
	Topics   []topicView   `json:"topics"`
	Blocks   []blockView   `json:"blocks"`
	Chapters []chapterView `json:"chapters"`
}

type topicNode struct {
	topicView
	Blocks []blockNode `json:"blocks"`
}

type blockNode struct {
	blockView
	Chapters []chapterView `json:"chapters"`
}

type hierarchicalDoc struct {
	Topics []topicNode `json:"topics"`
}

// Flat renders every topic, block and chapter as three parallel lists.
func Flat(topics []store.Topic, blocks []store.Block, chapters []store.Chapter) (string, error) {
	return encode(flatView(topics, blocks, chapters))
}

// Hierarchical renders topics with their blocks nested inside and each
// block's chapters nested inside it. Childless entities carry an empty list.
func Hierarchical(topics []store.Topic, blocks []store.Block, chapters []store.Chapter) (string, error) {
	return encode(hierarchicalView(topics, blocks, chapters))
}

// Fragment renders the prompt section carrying both views.
func Fragment(topics []store.Topic, blocks []store.Block, chapters []store.Chapter) (string, error) {
	body, err := encode(struct {
		Flat         flatDoc         `json:"flat"`
		Hierarchical hierarchicalDoc `json:"hierarchical"`
	}{
		Flat:         flatView(topics, blocks, chapters),
		Hierarchical: hierarchicalView(topics, blocks, chapters),
	})
	if err != nil {
		return "", err
	}
	return Header + "\n" + body, nil
}

func flatView(topics []store.Topic, blocks []store.Block, chapters []store.Chapter) flatDoc {
	return flatDoc{
		Topics:   lo.Map(topics, func(t store.Topic, _ int) topicView { return newTopicView(t) }),
		Blocks:   lo.Map(blocks, func(b store.Block, _ int) blockView { return newBlockView(b) }),
		Chapters: lo.Map(chapters, func(c store.Chapter, _ int) chapterView { return newChapterView(c) }),
	}
}

func hierarchicalView(topics []store.Topic, blocks []store.Block, chapters []store.Chapter) hierarchicalDoc {
	blocksByTopic := lo.GroupBy(blocks, func(b store.Block) int64 { return b.TopicID })
	chaptersByBlock := lo.GroupBy(chapters, func(c store.Chapter) int64 { return c.BlockID })

	doc := hierarchicalDoc{Topics: make([]topicNode, 0, len(topics))}
	for _, t := range topics {
		node := topicNode{topicView: newTopicView(t), Blocks: []blockNode{}}
		for _, b := range blocksByTopic[t.ID] {
			bn := blockNode{blockView: newBlockView(b), Chapters: []chapterView{}}
			for _, c := range chaptersByBlock[b.ID] {
				bn.Chapters = append(bn.Chapters, newChapterView(c))
			}
			node.Blocks = append(node.Blocks, bn)
		}
		doc.Topics = append(doc.Topics, node)
	}
	return doc
}

func newTopicView(t store.Topic) topicView {
	return topicView{
		ID:            t.ID,
		Name:          t.Name,
		IntroFileID:   fileRef(t.IntroFileID),
		EduPlanFileID: fileRef(t.EduPlanFileID),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func newBlockView(b store.Block) blockView {
	return blockView{
		ID:            b.ID,
		TopicID:       b.TopicID,
		Name:          b.Name,
		ContentFileID: fileRef(b.ContentFileID),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func newChapterView(c store.Chapter) chapterView {
	return chapterView{
		ID:            c.ID,
		TopicID:       c.TopicID,
		BlockID:       c.BlockID,
		Name:          c.Name,
		ContentFileID: fileRef(c.ContentFileID),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// fileRef renders an unset file id as JSON null.
func fileRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// encode writes two-space indented JSON without escaping non-ASCII or HTML
// characters.
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
