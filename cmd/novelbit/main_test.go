package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelbit/api/models"
	"novelbit/fingerprint"
)

// run executes the CLI against a sqlite file in dir.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--dsn", "file:"+filepath.Join(dir, "cli.db"), "--log-level", "error"))
	require.NoError(t, root.Execute(), "args %v", args)
	return out.String()
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestCLI_Version(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "dev\n", out.String())
}

func TestCLI_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got := decode[models.FingerprintBatchResponse](t, run(t, dir, "fingerprint", "hello", "Chapter 1"))
	require.Len(t, got.Results, 2)
	assert.InDelta(t, 0.027499999999999997, got.Results[0].Max, 1e-9)
	assert.InDelta(t, 6.875, got.Results[0].Min, 1e-9)
	assert.InDelta(t, 4.794166666666666, got.Results[1].Max, 1e-9)

	legacy := decode[models.FingerprintBatchResponse](t, run(t, dir, "fingerprint", "hello", "--legacy-prefix"))
	assert.Equal(t, 25, legacy.Results[0].Length)
}

func TestCLI_DataLifecycle(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := "Novel → Chapter 1 → Characters"

	first := decode[models.SaveDataResponse](t, run(t, dir, "save", path, "Alice", "--meta", "novelTitle=Novel"))
	assert.False(t, first.Duplicate)
	assert.NotEmpty(t, first.Record.UUID)

	dup := decode[models.SaveDataResponse](t, run(t, dir, "save", path, "Alice"))
	assert.True(t, dup.Duplicate)

	run(t, dir, "save", path, "Bob")

	attrs := decode[models.AttributesResponse](t, run(t, dir, "list"))
	require.Equal(t, 1, attrs.Count)
	assert.Equal(t, path, attrs.Attributes[0].Text)

	items := decode[models.DataListResponse](t, run(t, dir, "list", "Novel", "Chapter 1", "Characters"))
	require.Equal(t, 2, items.Count)
	assert.Equal(t, "Bob", items.Items[0].Data.Text)
	assert.Equal(t, "Novel", items.Items[1].Metadata["novelTitle"])
	assert.True(t, fingerprint.Compute("Alice").Fingerprint.Equal(fingerprint.Fingerprint{
		Max: items.Items[1].Data.BitMax, Min: items.Items[1].Data.BitMin,
	}))

	hits := decode[models.SearchResponse](t, run(t, dir, "search", "Characters"))
	require.NotZero(t, hits.Count)
	assert.Equal(t, path, hits.Attributes[0].Text)

	del := decode[models.DeleteResponse](t, run(t, dir, "delete", path, "--text", "Bob"))
	assert.Equal(t, 1, del.DeletedCount)

	all := decode[models.DeleteResponse](t, run(t, dir, "delete", path))
	assert.Equal(t, 2, all.DeletedCount)
	require.NotNil(t, all.DeletedRecords)
	assert.Equal(t, 1, *all.DeletedRecords)

	empty := decode[models.AttributesResponse](t, run(t, dir, "list"))
	assert.Zero(t, empty.Count)
}

func TestCLI_Import(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	data := filepath.Join(dir, "data", "max", "1", "max_bit")
	require.NoError(t, os.MkdirAll(data, 0o755))
	lines := []string{
		`{"attribute":{"text":"Novel → Chapter 1"},"s":"opening","t":1700000000000}`,
		`{"attribute":{"text":"Novel → Chapter 1"},"s":"opening","t":1700000000000}`,
	}
	require.NoError(t, os.WriteFile(filepath.Join(data, "log.ndjson"), []byte(strings.Join(lines, "\n")), 0o644))

	out := run(t, dir, "import", filepath.Join(dir, "data"))
	assert.Equal(t, "1 files, 2 lines: 1 saved, 1 duplicates, 0 skipped\n", out)

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"import", filepath.Join(dir, "nothing"), "--dsn", "file:" + filepath.Join(dir, "cli.db")})
	assert.Error(t, root.Execute())
}

func TestCLI_InvalidDialect(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"list", "--dialect", "redis"})
	assert.Error(t, root.Execute())
}
