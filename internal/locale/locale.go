// Package locale loads per-language text modules and expands {key}
// references between entries of the same module.
package locale

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizbot/core/logger"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// Module names recognised by the loader.
const (
	ModuleUI      = "ui"
	ModuleBot     = "bot"
	ModuleButtons = "buttons"
)

var knownModules = []string{ModuleUI, ModuleBot, ModuleButtons}

// Bundle holds the loaded text entries of one language.
type Bundle struct {
	lang    string
	modules map[string]map[string]string
}

// Load reads <dir>/<lang>/<module>.yaml for every known module.
// A missing module file is tolerated with a warning; a malformed one is not.
func Load(dir, lang string) (*Bundle, error) {
	b := &Bundle{
		lang:    lang,
		modules: make(map[string]map[string]string, len(knownModules)),
	}
	for _, mod := range knownModules {
		path := filepath.Join(dir, lang, mod+".yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.LOC.Warn("module missing",
					slog.String("event", "locale.load"),
					slog.String("module", mod),
					slog.String("path", path),
				)
				b.modules[mod] = map[string]string{}
				continue
			}
			return nil, fmt.Errorf("locale: read %s: %w", path, err)
		}
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", path, err)
		}
		// Only string values participate in expansion; anything else
		// (nested maps, lists, numbers) is skipped with a warning.
		entries := make(map[string]string, len(raw))
		for key, value := range raw {
			s, ok := value.(string)
			if !ok {
				logger.LOC.Warn("non-string entry skipped",
					slog.String("event", "locale.load"),
					slog.String("module", mod),
					slog.String("key", key),
				)
				continue
			}
			entries[key] = s
		}
		b.modules[mod] = entries
		logger.LOC.Info("module loaded",
			slog.String("event", "locale.load"),
			slog.String("module", mod),
			slog.Int("count", len(entries)),
		)
	}
	return b, nil
}

// Language returns the language code the bundle was loaded for.
func (b *Bundle) Language() string {
	return b.lang
}

// Get returns the fully expanded text for module/key. When the key is absent
// the fallback is returned and a warning is logged, so a hole in the locale
// files degrades the UI text instead of breaking a flow.
func (b *Bundle) Get(module, key, fallback string) string {
	entries, ok := b.modules[module]
	if !ok {
		logger.LOC.Warn("unknown module",
			slog.String("event", "locale.get"),
			slog.String("module", module),
			slog.String("key", key),
		)
		return fallback
	}
	raw, ok := entries[key]
	if !ok {
		logger.LOC.Warn("missing key",
			slog.String("event", "locale.get"),
			slog.String("module", module),
			slog.String("key", key),
		)
		return fallback
	}
	visited := map[string]struct{}{key: {}}
	return b.expand(module, entries, raw, visited)
}

// Getf is Get followed by fmt.Sprintf over the expanded template.
func (b *Bundle) Getf(module, key, fallback string, args ...any) string {
	return fmt.Sprintf(b.Get(module, key, fallback), args...)
}

// expand substitutes {ref} occurrences with sibling entries of the module.
// Every reference may be expanded at most once per resolution chain; a
// repeated reference means a cycle and the placeholder is left verbatim.
func (b *Bundle) expand(module string, entries map[string]string, text string, visited map[string]struct{}) string {
	var out strings.Builder
	rest := text
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			out.WriteString(rest)
			return out.String()
		}
		closeIdx := strings.Index(rest[open:], "}")
		if closeIdx < 0 {
			out.WriteString(rest)
			return out.String()
		}
		closeIdx += open

		out.WriteString(rest[:open])
		ref := rest[open+1 : closeIdx]
		placeholder := rest[open : closeIdx+1]
		rest = rest[closeIdx+1:]

		sub, ok := entries[ref]
		if !ok {
			// Not a locale reference; keep literal for fmt-style templates.
			out.WriteString(placeholder)
			continue
		}
		if _, seen := visited[ref]; seen {
			logger.LOC.Warn("reference cycle",
				slog.String("event", "locale.expand"),
				slog.String("module", module),
				slog.String("key", ref),
			)
			out.WriteString(placeholder)
			continue
		}
		visited[ref] = struct{}{}
		out.WriteString(b.expand(module, entries, sub, visited))
		delete(visited, ref)
	}
}

// NewStatic builds a bundle from in-memory entries. Intended for tests.
func NewStatic(lang string, modules map[string]map[string]string) *Bundle {
	if modules == nil {
		modules = map[string]map[string]string{}
	}
	return &Bundle{lang: lang, modules: modules}
}
