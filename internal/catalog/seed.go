package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/store"
)

// Manifest describes a catalog to import. File paths are relative to the
// manifest's directory.
type Manifest struct {
	Topics []TopicSpec `yaml:"topics"`
}

type TopicSpec struct {
	Name    string      `yaml:"name"`
	Intro   string      `yaml:"intro"`
	EduPlan string      `yaml:"edu_plan"`
	Blocks  []BlockSpec `yaml:"blocks"`
}

type BlockSpec struct {
	Name     string        `yaml:"name"`
	Content  string        `yaml:"content"`
	Chapters []ChapterSpec `yaml:"chapters"`
}

type ChapterSpec struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// Writer creates catalog entities. store.ContentRepo satisfies it.
type Writer interface {
	CreateTopic(ctx context.Context, t *store.Topic) error
	CreateBlock(ctx context.Context, b *store.Block) error
	CreateChapter(ctx context.Context, c *store.Chapter) error
}

// SeedStats counts what Seed created.
type SeedStats struct {
	Topics, Blocks, Chapters, Files int
}

// ParseManifest decodes a YAML manifest and checks that every entity is
// named.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	var errs []error
	for i, t := range m.Topics {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("topics[%d]: name is required", i))
		}
		for j, b := range t.Blocks {
			if b.Name == "" {
				errs = append(errs, fmt.Errorf("topics[%d].blocks[%d]: name is required", i, j))
			}
			for k, c := range b.Chapters {
				if c.Name == "" {
					errs = append(errs, fmt.Errorf("topics[%d].blocks[%d].chapters[%d]: name is required", i, j, k))
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

// Seed uploads the manifest's files from files to blobs and creates the
// entities in manifest order, so ids follow the listing.
func Seed(ctx context.Context, m *Manifest, files fs.FS, blobs blob.Store, w Writer) (SeedStats, error) {
	var stats SeedStats
	upload := func(p string) (string, error) {
		if p == "" {
			return "", nil
		}
		f, err := files.Open(p)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()
		id, err := blobs.Upload(ctx, path.Base(p), f)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", p, err)
		}
		stats.Files++
		return id, nil
	}

	for _, ts := range m.Topics {
		t := store.Topic{Name: ts.Name}
		var err error
		if t.IntroFileID, err = upload(ts.Intro); err != nil {
			return stats, err
		}
		if t.EduPlanFileID, err = upload(ts.EduPlan); err != nil {
			return stats, err
		}
		if err := w.CreateTopic(ctx, &t); err != nil {
			return stats, fmt.Errorf("topic %q: %w", ts.Name, err)
		}
		stats.Topics++

		for _, bs := range ts.Blocks {
			b := store.Block{TopicID: t.ID, Name: bs.Name}
			if b.ContentFileID, err = upload(bs.Content); err != nil {
				return stats, err
			}
			if err := w.CreateBlock(ctx, &b); err != nil {
				return stats, fmt.Errorf("block %q: %w", bs.Name, err)
			}
			stats.Blocks++

			for _, cs := range bs.Chapters {
				c := store.Chapter{TopicID: t.ID, BlockID: b.ID, Name: cs.Name}
				if c.ContentFileID, err = upload(cs.Content); err != nil {
					return stats, err
				}
				if err := w.CreateChapter(ctx, &c); err != nil {
					return stats, fmt.Errorf("chapter %q: %w", cs.Name, err)
				}
				stats.Chapters++
			}
		}
	}
	return stats, nil
}
