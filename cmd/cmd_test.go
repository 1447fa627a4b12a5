package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/aimentor/internal/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLIStudentAndCatalog(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("AIMENTOR_DB_DRIVER", "")
	t.Setenv("AIMENTOR_DB_DSN", "")
	t.Setenv("AIMENTOR_BLOB_DIR", filepath.Join(dir, "blobs"))
	t.Setenv("AIMENTOR_REDIS_ADDR", "")
	db := filepath.Join(dir, "mentor.db")

	assert.Contains(t, run(t, "version"), "aimentor")

	out := run(t, "student", "create", "--db", db)
	assert.Contains(t, out, "created student 1 (registrator)")

	out = run(t, "student", "show", "1", "--db", db, "--json")
	var st store.Student
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(1), st.ID)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "course"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course", "intro.md"), []byte("# Go"), 0o644))
	manifest := filepath.Join(dir, "course", "course.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
topics:
  - name: Go
    intro: intro.md
    blocks:
      - name: Basics
        chapters:
          - name: Variables
`), 0o644))

	out = run(t, "catalog", "seed", manifest, "--db", db)
	assert.Contains(t, out, "seeded 1 topics, 1 blocks, 1 chapters (1 files)")

	out = run(t, "catalog", "show", "--db", db, "--layout", "hierarchical")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"), out)
	assert.Contains(t, out, "Variables")
	assert.NotContains(t, out, "СОДЕРЖАНИЕ")

	out = run(t, "catalog", "schema")
	assert.Contains(t, out, `"additionalProperties": false`)
}
