package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemapgen/internal/builder"
	"sitemapgen/internal/config"
)

const notesSource = `export const computerNotes = [
  { id: 'intro-to-cpu', title: "CPU" },
  { id: "memory", title: 'Memory' },
];
`

type fixture struct {
	dir    string
	source string
	out    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		source: filepath.Join(dir, "computerNotes.js"),
		out:    filepath.Join(dir, "sitemap.xml"),
	}
	require.NoError(t, os.WriteFile(f.source, []byte(notesSource), 0644))

	return f
}

func (f *fixture) args(args ...string) []string {
	return append(args, "--source", f.source, "--out", f.out)
}

func execute(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cmd := newRootCmd(&stdout, &stderr, lookup)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestGenerate_WritesSitemap(t *testing.T) {
	f := newFixture(t)

	stdout, stderr, err := execute(t, nil, f.args("generate")...)
	require.NoError(t, err)

	assert.Equal(t, "Sitemap generated successfully at "+f.out+"\n", stdout)
	assert.Contains(t, stderr, "Found 2 notes.")

	data, err := os.ReadFile(f.out)
	require.NoError(t, err)
	assert.Equal(t, 11, strings.Count(string(data), "<url>"))
	assert.Contains(t, string(data), "<loc>https://coderafroj.vercel.app/notes/intro-to-cpu</loc>")
}

func TestRoot_DefaultsToGenerate(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := execute(t, nil, f.args()...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Sitemap generated successfully")
	assert.FileExists(t, f.out)
}

func TestGenerate_DryRun(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := execute(t, nil, f.args("generate", "--dry-run")...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "| # ")
	assert.Contains(t, stdout, "https://coderafroj.vercel.app/notes/memory")
	assert.Contains(t, stdout, "Dry run: 11 URLs (9 static, 2 notes)")
	assert.NoFileExists(t, f.out)
}

func TestGenerate_MissingSource(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.out, []byte("previous"), 0644))

	_, _, err := execute(t, nil, "generate", "--source", filepath.Join(f.dir, "missing.js"), "--out", f.out)
	require.Error(t, err)
	assert.ErrorIs(t, err, builder.ErrSourceRead)

	data, readErr := os.ReadFile(f.out)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
}

func TestGenerate_MissingDestinationDirectory(t *testing.T) {
	f := newFixture(t)

	_, _, err := execute(t, nil, "generate", "--source", f.source, "--out", filepath.Join(f.dir, "public", "sitemap.xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, builder.ErrDestinationWrite)
}

func TestGenerate_MetricsFile(t *testing.T) {
	f := newFixture(t)
	metricsPath := filepath.Join(f.dir, "sitemap.prom")

	_, _, err := execute(t, nil, f.args("generate", "--metrics-file", metricsPath)...)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitemap_entries{kind="dynamic"} 2`)
	assert.Contains(t, string(data), "sitemap_last_run_success 1")
}

func TestConfigPrecedence(t *testing.T) {
	f := newFixture(t)
	env := map[string]string{config.EnvBaseURL: "https://env.example.com"}

	t.Run("environment over defaults", func(t *testing.T) {
		stdout, _, err := execute(t, env, f.args("config")...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "https://env.example.com")
	})

	t.Run("flags over environment", func(t *testing.T) {
		stdout, _, err := execute(t, env, f.args("config", "--base-url", "https://flag.example.com/")...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "https://flag.example.com")
		assert.NotContains(t, stdout, "env.example.com")
	})

	t.Run("config file under environment", func(t *testing.T) {
		cfgPath := filepath.Join(f.dir, "custom.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("site:\n  base_url: https://file.example.com\n"), 0644))

		stdout, _, err := execute(t, nil, f.args("config", "--config", cfgPath)...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "https://file.example.com")

		stdout, _, err = execute(t, env, f.args("config", "--config", cfgPath)...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "https://env.example.com")
	})
}

func TestInvalidConfiguration(t *testing.T) {
	f := newFixture(t)

	_, _, err := execute(t, nil, f.args("generate", "--extractor", "magic")...)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidExtractor)
}

func TestIDs(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := execute(t, nil, f.args("ids", "--plain")...)
	require.NoError(t, err)
	assert.Equal(t, "intro-to-cpu\nmemory\n", stdout)

	stdout, _, err = execute(t, nil, f.args("ids")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "| 1   | intro-to-cpu |")
}

var lastmodPattern = regexp.MustCompile(`<lastmod>[^<]*</lastmod>`)

func TestCheck(t *testing.T) {
	f := newFixture(t)

	_, _, err := execute(t, nil, f.args("generate")...)
	require.NoError(t, err)

	t.Run("up to date across days", func(t *testing.T) {
		data, err := os.ReadFile(f.out)
		require.NoError(t, err)
		older := lastmodPattern.ReplaceAll(data, []byte("<lastmod>2020-01-01</lastmod>"))
		require.NoError(t, os.WriteFile(f.out, older, 0644))

		stdout, _, err := execute(t, nil, f.args("check")...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "is up to date (11 URLs, lastmod 2020-01-01)")
	})

	t.Run("stale after new note", func(t *testing.T) {
		updated := strings.Replace(notesSource, "];", "  { id: 'disk' },\n];", 1)
		require.NoError(t, os.WriteFile(f.source, []byte(updated), 0644))
		t.Cleanup(func() { _ = os.WriteFile(f.source, []byte(notesSource), 0644) })

		_, _, err := execute(t, nil, f.args("check")...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStaleSitemap)
	})

	t.Run("invalid document", func(t *testing.T) {
		data, err := os.ReadFile(f.out)
		require.NoError(t, err)
		broken := strings.Replace(string(data), "<changefreq>weekly</changefreq>", "<changefreq>often</changefreq>", 1)
		require.NoError(t, os.WriteFile(f.out, []byte(broken), 0644))

		stdout, _, err := execute(t, nil, f.args("check")...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSitemap)
		assert.Contains(t, stdout, "Validation errors:")
	})

	t.Run("missing destination", func(t *testing.T) {
		_, _, err := execute(t, nil, "check", "--source", f.source, "--out", filepath.Join(f.dir, "none.xml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWatch_RejectsRemoteSource(t *testing.T) {
	_, _, err := execute(t, nil, "watch", "--source", "https://example.com/notes.js", "--out", filepath.Join(t.TempDir(), "s.xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteWatch)
}

func TestWatch_MissingSourceDirectory(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, nil, "watch",
		"--source", filepath.Join(dir, "missing", "notes.js"),
		"--out", filepath.Join(dir, "sitemap.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
