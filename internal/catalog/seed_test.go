package catalog

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/store"
)

const manifestYAML = `
topics:
  - name: Основы Go
    intro: go/intro.md
    edu_plan: go/plan.md
    blocks:
      - name: Типы
        content: go/types.md
        chapters:
          - name: Срезы
            content: go/slices.md
          - name: Карты
  - name: Конкурентность
`

func TestParseManifestRequiresNames(t *testing.T) {
	_, err := ParseManifest([]byte("topics:\n  - blocks:\n      - chapters:\n          - content: x.md\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topics[0]: name is required")
	assert.Contains(t, err.Error(), "topics[0].blocks[0]: name is required")
	assert.Contains(t, err.Error(), "topics[0].blocks[0].chapters[0]: name is required")

	_, err = ParseManifest([]byte("topics: ["))
	assert.Error(t, err)
}

func TestSeedCreatesCatalogInOrder(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.SQLite, "file:seed_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	blobs, err := blob.NewDir(t.TempDir())
	require.NoError(t, err)

	files := fstest.MapFS{
		"go/intro.md":  {Data: []byte("# Intro")},
		"go/plan.md":   {Data: []byte("# Plan")},
		"go/types.md":  {Data: []byte("# Types")},
		"go/slices.md": {Data: []byte("# Slices")},
	}
	m, err := ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	stats, err := Seed(ctx, m, files, blobs, s.Content())
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Topics: 2, Blocks: 1, Chapters: 2, Files: 4}, stats)

	topics, err := s.Content().Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Основы Go", topics[0].Name)
	assert.Empty(t, topics[1].IntroFileID)

	obj, err := blobs.Download(ctx, topics[0].EduPlanFileID)
	require.NoError(t, err)
	assert.Equal(t, "# Plan", string(obj.Data))

	chapters, err := s.Content().Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, topics[0].ID, chapters[0].TopicID)
	assert.Equal(t, chapters[0].BlockID, chapters[1].BlockID)
	assert.Empty(t, chapters[1].ContentFileID)

	frag, err := NewLoader(s.Content(), nil, 0, nil).Fragment(ctx)
	require.NoError(t, err)
	assert.Contains(t, frag, "Срезы")
}

func TestSeedMissingFile(t *testing.T) {
	blobs, err := blob.NewDir(t.TempDir())
	require.NoError(t, err)
	m := &Manifest{Topics: []TopicSpec{{Name: "x", Intro: "missing.md"}}}

	_, err = Seed(context.Background(), m, fstest.MapFS{}, blobs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.md")
}
