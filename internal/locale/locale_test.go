package locale

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExpandsReferences(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleUI: {
			"a":        "X",
			"b":        "Y",
			"combined": "{a} and {b}",
		},
	})
	assert.Equal(t, "X and Y", b.Get(ModuleUI, "combined", "?"))
}

func TestGetExpandsNested(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleBot: {
			"name":     "Quiz Night",
			"greeting": "Welcome to {name}",
			"full":     "{greeting}!",
		},
	})
	assert.Equal(t, "Welcome to Quiz Night!", b.Get(ModuleBot, "full", "?"))
}

func TestGetSelfCycleKeepsPlaceholder(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleUI: {"loop": "again {loop}"},
	})
	assert.Equal(t, "again {loop}", b.Get(ModuleUI, "loop", "?"))
}

func TestGetTransitiveCycleKeepsPlaceholder(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleUI: {
			"a": "a->{b}",
			"b": "b->{a}",
		},
	})
	assert.Equal(t, "a->b->{a}", b.Get(ModuleUI, "a", "?"))
}

func TestGetMissingKeyReturnsFallback(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{ModuleUI: {}})
	assert.Equal(t, "fallback", b.Get(ModuleUI, "nope", "fallback"))
	assert.Equal(t, "fallback", b.Get("nonexistent", "nope", "fallback"))
}

func TestGetKeepsFormatPlaceholders(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleBot: {"added": "Player {player} added"},
	})
	// {player} is not a module entry; it stays literal.
	assert.Equal(t, "Player {player} added", b.Get(ModuleBot, "added", "?"))
}

func TestGetfFormats(t *testing.T) {
	b := NewStatic("en", map[string]map[string]string{
		ModuleBot: {"games": "Played %d games"},
	})
	assert.Equal(t, "Played 30 games", b.Getf(ModuleBot, "games", "?", 30))
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "en", "ui.yaml"),
		[]byte("title: Admin panel\nheader: \"== {title} ==\"\n"),
		0o644,
	))

	b, err := Load(dir, "en")
	require.NoError(t, err)
	assert.Equal(t, "en", b.Language())
	assert.Equal(t, "== Admin panel ==", b.Get(ModuleUI, "header", "?"))
	// bot.yaml and buttons.yaml are absent; lookups fall back.
	assert.Equal(t, "d", b.Get(ModuleBot, "x", "d"))
}

func TestLoadSkipsNonStringValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "en", "ui.yaml"),
		[]byte("title: Admin panel\nnested:\n  inner: nope\ncount: 3\n"),
		0o644,
	))

	b, err := Load(dir, "en")
	require.NoError(t, err, "structured values must not fail the whole load")
	assert.Equal(t, "Admin panel", b.Get(ModuleUI, "title", "?"))
	assert.Equal(t, "d", b.Get(ModuleUI, "nested", "d"))
	assert.Equal(t, "d", b.Get(ModuleUI, "count", "d"))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "en", "ui.yaml"),
		[]byte("title: [unterminated\n"),
		0o644,
	))
	_, err := Load(dir, "en")
	assert.Error(t, err)
}
