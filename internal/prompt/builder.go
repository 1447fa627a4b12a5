// Package prompt assembles the system prompt for the expert that owns a
// student's dialogue.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/expert"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// ContractVersion tags the reply format the model is asked to follow.
const ContractVersion = "v2"

// ErrUnknownExpert is returned for a persona outside the closed set.
var ErrUnknownExpert = errors.New("unknown expert")

const (
	notSet      = "Не указано"
	loadFailed  = "Ошибка загрузки"
	contentHead = "ТЕКУЩИЙ КОНТЕНТ:"

	// maxChapterRunes caps the chapter text embedded in a prompt.
	maxChapterRunes = 12000
)

// CatalogSource renders the catalog fragment. *catalog.Loader satisfies it.
type CatalogSource interface {
	Fragment(ctx context.Context) (string, error)
}

// Builder composes persona rules, student context, content context and the
// reply contract into a system prompt.
type Builder struct {
	students store.StudentRepo
	content  store.ContentRepo
	blobs    blob.Store
	catalog  CatalogSource
	log      *logger.Logger
}

// NewBuilder creates a prompt builder. blobs may be nil, in which case
// chapter content is reported as unavailable.
func NewBuilder(students store.StudentRepo, content store.ContentRepo, blobs blob.Store, catalog CatalogSource, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Builder{students: students, content: content, blobs: blobs, catalog: catalog, log: log}
}

// Build returns the system prompt for persona talking to studentID.
func (b *Builder) Build(ctx context.Context, persona expert.Expert, studentID int64) (string, error) {
	p, ok := personas[persona]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownExpert, persona)
	}

	st, err := b.students.Get(ctx, studentID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("КТО ТЫ:\n")
	sb.WriteString(p.role)
	sb.WriteString("\n\n")
	writeRoster(&sb, persona)
	sb.WriteString("\n")
	sb.WriteString(StudentContext(st))
	sb.WriteString("\n")

	if p.withContent {
		sb.WriteString(b.contentContext(ctx, st))
		sb.WriteString("\n\n")
	}
	if p.withCatalog {
		frag, err := b.catalog.Fragment(ctx)
		if err != nil {
			return "", fmt.Errorf("catalog fragment: %w", err)
		}
		sb.WriteString(frag)
		sb.WriteString("\n\n")
	}

	sb.WriteString(p.rules)
	sb.WriteString("\n\n")

	sb.WriteString("ЗАПРЕЩЕНО:\n")
	for _, f := range append(append([]string{}, commonForbidden...), p.forbidden...) {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	sb.WriteString("\n")

	sb.WriteString("КОМАНДЫ, КОТОРЫЕ ТЫ МОЖЕШЬ ИСПОЛЬЗОВАТЬ:\n")
	sb.WriteString(p.commands)
	sb.WriteString("\nДругие команды будут проигнорированы.\n\n")

	writeContract(&sb, p.example)
	return sb.String(), nil
}

func writeRoster(sb *strings.Builder, self expert.Expert) {
	sb.WriteString("В системе есть следующие эксперты:\n")
	for _, r := range roster {
		title := r.title
		if r.expert == self {
			title += " (ты)"
		}
		fmt.Fprintf(sb, "- %s: %s (%s)\n", title, r.duty, r.expert)
	}
}

func writeContract(sb *strings.Builder, example string) {
	fmt.Fprintf(sb, "ФОРМАТ ОТВЕТА (контракт %s):\n", ContractVersion)
	sb.WriteString(`Ответ должен быть ОДНИМ JSON-объектом ровно с двумя ключами верхнего уровня:
1. "user_message": строка, сообщение для студента (обычный дружелюбный текст)
2. "metadata": объект с массивом "commands"; каждая команда содержит "name", "params" и "description"
Команды никогда не помещаются в "user_message". Если команд нет, верни "commands": [].

СХЕМА ОДНОЙ КОМАНДЫ:
`)
	sb.WriteString(command.SchemaJSON())
	sb.WriteString("\n\nПРИМЕР ПРАВИЛЬНОГО ОТВЕТА:\n```json\n")
	sb.WriteString(example)
	sb.WriteString("\n```\n\nПОМНИ: Возвращай ТОЛЬКО валидный JSON без дополнительного текста!")
}

// StudentContext renders every profile and progress field of st. Unset
// fields show a placeholder instead of being omitted.
func StudentContext(st *store.Student) string {
	score := notSet
	if st.AssessmentScore != nil {
		score = strconv.Itoa(*st.AssessmentScore)
	}

	lines := []struct{ label, value string }{
		{"Текущий эксперт", orNotSet(st.CurrentExpert.String())},
		{"Текущая тема", refs(st.CurrentTopic)},
		{"Текущий блок", refs(st.CurrentBlock)},
		{"Текущая глава", refs(st.CurrentChapter)},
		{"Опыт программирования", orNotSet(st.ProgrammingExperience)},
		{"Образование", orNotSet(st.EducationBackground)},
		{"Цели обучения", orNotSet(st.LearningGoals)},
		{"Карьерные цели", orNotSet(st.CareerGoals)},
		{"Ожидаемый срок обучения", orNotSet(st.Timeline)},
		{"Стиль обучения", orNotSet(st.LearningStyle)},
		{"Предпочитаемая длительность уроков", orNotSet(st.LessonDuration)},
		{"Предпочтения сложности", orNotSet(st.PreferredDifficulty)},
		{"Оценочный балл", score},
		{"Рекомендованная последовательность тем", refs(st.RecommendedTopics)},
		{"Рекомендованная последовательность блоков", refs(st.RecommendedBlocks)},
		{"Пройденные темы", refs(st.ApprovedTopics)},
		{"Пройденные блоки", refs(st.ApprovedBlocks)},
		{"Пройденные главы", refs(st.ApprovedChapters)},
		{"Сильные стороны", list(st.StrongAreas)},
		{"Слабые стороны", list(st.WeakAreas)},
	}

	var sb strings.Builder
	sb.WriteString("ПРОФИЛЬ СТУДЕНТА:\n")
	for _, l := range lines {
		fmt.Fprintf(&sb, "- %s: %s\n", l.label, l.value)
	}
	return sb.String()
}

// contentContext resolves the student's current pointers into live catalog
// entries. Lookup failures become placeholder lines.
func (b *Builder) contentContext(ctx context.Context, st *store.Student) string {
	lines := []string{contentHead}

	if ref, ok := st.CurrentTopic.Single(); ok {
		lines = append(lines, "- Тема: "+ref.Name, fmt.Sprintf("- ID Темы: %d", ref.ID))
	} else {
		lines = append(lines, "- Тема: Не выбрана")
	}

	if ref, ok := st.CurrentBlock.Single(); ok {
		blk, err := b.content.Block(ctx, ref.ID)
		if err != nil {
			b.log.Warn("current block lookup failed", "student_id", st.ID, "block_id", ref.ID, "error", err)
			lines = append(lines, "- Блок: "+loadFailed)
		} else {
			lines = append(lines, "- Блок: "+blk.Name, fmt.Sprintf("- ID Блока: %d", blk.ID))
		}
	} else {
		lines = append(lines, "- Блок: Не выбран")
	}

	if ref, ok := st.CurrentChapter.Single(); ok {
		ch, err := b.content.Chapter(ctx, ref.ID)
		if err != nil {
			b.log.Warn("current chapter lookup failed", "student_id", st.ID, "chapter_id", ref.ID, "error", err)
			lines = append(lines, "- Глава: "+loadFailed)
		} else {
			lines = append(lines, "- Глава: "+ch.Name, fmt.Sprintf("- ID Главы: %d", ch.ID))
			if ch.ContentFileID != "" {
				lines = append(lines, b.chapterContent(ctx, ch))
			}
		}
	} else {
		lines = append(lines, "- Глава: Не выбрана")
	}

	return strings.Join(lines, "\n")
}

func (b *Builder) chapterContent(ctx context.Context, ch *store.Chapter) string {
	if b.blobs == nil {
		return "- Содержание главы: " + loadFailed
	}
	obj, err := b.blobs.Download(ctx, ch.ContentFileID)
	if err != nil {
		b.log.Warn("chapter content download failed", "chapter_id", ch.ID, "file_id", ch.ContentFileID, "error", err)
		return "- Содержание главы: " + loadFailed
	}
	if len(obj.Data) == 0 {
		return "- Содержание главы: пусто"
	}
	if !strings.HasPrefix(obj.ContentType, "text/") || !utf8.Valid(obj.Data) {
		return "- Содержание главы доступно"
	}
	return "- Содержание главы доступно:\n" + truncateRunes(string(obj.Data), maxChapterRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "\n[...]"
}

func orNotSet(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSet
	}
	return s
}

func refs(m store.IDNameMap) string {
	if len(m) == 0 {
		return notSet
	}
	parts := make([]string, 0, len(m))
	for _, r := range m.Refs() {
		parts = append(parts, fmt.Sprintf("%s (ID %d)", r.Name, r.ID))
	}
	return strings.Join(parts, ", ")
}

func list(items []string) string {
	if len(items) == 0 {
		return notSet
	}
	return strings.Join(items, ", ")
}
