package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/catalog"
	"github.com/abhisek/aimentor/internal/expert"
	"github.com/abhisek/aimentor/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store   *store.Store
	blobs   *blob.Dir
	builder *Builder
	student *store.Student
	topic   store.Topic
	block   store.Block
	chapter store.Chapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(store.SQLite, fmt.Sprintf("file:prompt_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	blobs, err := blob.NewDir(t.TempDir())
	require.NoError(t, err)

	f := &fixture{store: s, blobs: blobs}

	fileID, err := blobs.Upload(ctx, "slices.md", strings.NewReader("# Срезы\nСрез ссылается на массив."))
	require.NoError(t, err)

	f.topic = store.Topic{Name: "Основы Go"}
	require.NoError(t, s.Content().CreateTopic(ctx, &f.topic))
	f.block = store.Block{TopicID: f.topic.ID, Name: "Типы"}
	require.NoError(t, s.Content().CreateBlock(ctx, &f.block))
	f.chapter = store.Chapter{TopicID: f.topic.ID, BlockID: f.block.ID, Name: "Срезы", ContentFileID: fileID}
	require.NoError(t, s.Content().CreateChapter(ctx, &f.chapter))

	f.student, err = s.Students().Create(ctx, nil)
	require.NoError(t, err)

	loader := catalog.NewLoader(s.Content(), nil, 0, nil)
	f.builder = NewBuilder(s.Students(), s.Content(), blobs, loader, nil)
	return f
}

func (f *fixture) point(t *testing.T, block, chapter int64) {
	t.Helper()
	err := f.store.Students().SetCurrentContent(context.Background(), f.student.ID, store.ContentPointers{
		Topic:   store.Ref{ID: f.topic.ID, Name: f.topic.Name},
		Block:   store.Ref{ID: block, Name: "устаревшее имя"},
		Chapter: store.Ref{ID: chapter, Name: "устаревшее имя"},
	})
	require.NoError(t, err)
}

func TestBuildUnknownExpert(t *testing.T) {
	f := newFixture(t)
	_, err := f.builder.Build(context.Background(), expert.Expert("principal"), f.student.ID)
	assert.ErrorIs(t, err, ErrUnknownExpert)
}

func TestBuildUnknownStudent(t *testing.T) {
	f := newFixture(t)
	_, err := f.builder.Build(context.Background(), expert.Interview, 4242)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEveryPromptCarriesContract(t *testing.T) {
	f := newFixture(t)
	for _, e := range expert.All {
		t.Run(string(e), func(t *testing.T) {
			p, err := f.builder.Build(context.Background(), e, f.student.ID)
			require.NoError(t, err)
			assert.Contains(t, p, "контракт "+ContractVersion)
			assert.Contains(t, p, `"user_message"`)
			assert.Contains(t, p, `"metadata"`)
			assert.Contains(t, p, `"commands"`)
			assert.Contains(t, p, "СХЕМА ОДНОЙ КОМАНДЫ")
			assert.Contains(t, p, "switch_to_next_expert")
			assert.Contains(t, p, string(e)+")")
		})
	}
}

func TestOnboardingPromptsEmbedCatalog(t *testing.T) {
	f := newFixture(t)
	for _, e := range []expert.Expert{expert.Registrator, expert.Interview} {
		p, err := f.builder.Build(context.Background(), e, f.student.ID)
		require.NoError(t, err)
		assert.Contains(t, p, catalog.Header)
		assert.Contains(t, p, `"hierarchical"`)
		assert.NotContains(t, p, contentHead)
	}
}

func TestRegistratorCommands(t *testing.T) {
	f := newFixture(t)
	p, err := f.builder.Build(context.Background(), expert.Registrator, f.student.ID)
	require.NoError(t, err)
	assert.Contains(t, p, "- register_student")
	assert.Contains(t, p, "- login_student")
	assert.NotContains(t, p, "- approve_topic")
}

func TestStudentContextPlaceholders(t *testing.T) {
	f := newFixture(t)
	ctx := StudentContext(f.student)

	lines := strings.Split(strings.TrimSpace(ctx), "\n")
	require.Len(t, lines, 21, "header plus one line per field")
	assert.Contains(t, ctx, "- Текущий эксперт: registrator")
	// Every field except the expert is unset on a fresh student.
	assert.Equal(t, 19, strings.Count(ctx, notSet))
}

func TestStudentContextRendersValues(t *testing.T) {
	score := 85
	st := &store.Student{
		CurrentExpert:         expert.Teacher,
		ProgrammingExperience: "3 года Java",
		AssessmentScore:       &score,
		ApprovedTopics:        store.IDNameMap{2: "Б", 1: "А"},
		StrongAreas:           []string{"ООП", "SQL"},
	}
	ctx := StudentContext(st)
	assert.Contains(t, ctx, "- Опыт программирования: 3 года Java")
	assert.Contains(t, ctx, "- Оценочный балл: 85")
	assert.Contains(t, ctx, "- Пройденные темы: А (ID 1), Б (ID 2)")
	assert.Contains(t, ctx, "- Сильные стороны: ООП, SQL")
}

func TestTeacherPromptResolvesLiveContent(t *testing.T) {
	f := newFixture(t)
	f.point(t, f.block.ID, f.chapter.ID)

	p, err := f.builder.Build(context.Background(), expert.Teacher, f.student.ID)
	require.NoError(t, err)
	assert.Contains(t, p, contentHead)
	assert.Contains(t, p, "- Тема: Основы Go")
	assert.Contains(t, p, "- Блок: Типы")
	assert.Contains(t, p, "- Глава: Срезы")
	assert.Contains(t, p, "- Содержание главы доступно:")
	assert.Contains(t, p, "Срез ссылается на массив.")
	assert.NotContains(t, p, catalog.Header)
}

func TestContentLookupFailuresAreLocal(t *testing.T) {
	f := newFixture(t)
	f.point(t, 999, 998)

	p, err := f.builder.Build(context.Background(), expert.Test, f.student.ID)
	require.NoError(t, err)
	assert.Contains(t, p, "- Блок: "+loadFailed)
	assert.Contains(t, p, "- Глава: "+loadFailed)
	assert.Contains(t, p, "- approve_chapter")
}

func TestChapterDownloadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broken := store.Chapter{TopicID: f.topic.ID, BlockID: f.block.ID, Name: "Карты", ContentFileID: "missing.md"}
	require.NoError(t, f.store.Content().CreateChapter(ctx, &broken))
	f.point(t, f.block.ID, broken.ID)

	p, err := f.builder.Build(ctx, expert.Teacher, f.student.ID)
	require.NoError(t, err)
	assert.Contains(t, p, "- Глава: Карты")
	assert.Contains(t, p, "- Содержание главы: "+loadFailed)
}

func TestNoPointersSelected(t *testing.T) {
	f := newFixture(t)
	p, err := f.builder.Build(context.Background(), expert.Teacher, f.student.ID)
	require.NoError(t, err)
	assert.Contains(t, p, "- Тема: Не выбрана")
	assert.Contains(t, p, "- Блок: Не выбран")
	assert.Contains(t, p, "- Глава: Не выбрана")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "абв", truncateRunes("абв", 3))
	assert.Equal(t, "аб\n[...]", truncateRunes("абв", 2))
}
