// Package catalog loads the embedded ko-KR and en-US message catalogs and
// registers them with x/text/message.
//
// Files live at locales/<locale>/<namespace>.yaml. Every key starts with its
// namespace, e.g. journal.no_change in journal.yaml.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale every other locale falls back to.
const BaseLocale = "ko-KR"

type file struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds messages per locale, then per namespace.
type Bundle struct {
	locales map[string]map[string]map[string]string
	matcher language.Matcher
	tags    []language.Tag
}

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustLoadEmbedded()

// Default returns the embedded bundle, already registered.
func Default() *Bundle {
	return defaultBundle
}

// LoadFromFS reads every locales/*/*.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}

	b := &Bundle{locales: map[string]map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, f); err != nil {
			return nil, err
		}
	}
	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale goes first so the matcher falls back to it.
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range b.Locales() {
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, f file) error {
	locale := strings.TrimSpace(f.Locale)
	namespace := strings.TrimSpace(f.Namespace)
	switch {
	case locale != path.Base(path.Dir(p)):
		return fmt.Errorf("catalog %s: locale %q does not match its directory", p, locale)
	case namespace != strings.TrimSuffix(path.Base(p), ".yaml"):
		return fmt.Errorf("catalog %s: namespace %q does not match its file name", p, namespace)
	case len(f.Messages) == 0:
		return fmt.Errorf("catalog %s: no messages", p)
	}

	namespaces, ok := b.locales[locale]
	if !ok {
		namespaces = map[string]map[string]string{}
		b.locales[locale] = namespaces
	}
	messages := make(map[string]string, len(f.Messages))
	for key, value := range f.Messages {
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, namespace+".") {
			return fmt.Errorf("catalog %s: key %q must start with %q", p, key, namespace+".")
		}
		messages[key] = value
	}
	namespaces[namespace] = messages
	return nil
}

// Register makes every message available to printers for its locale and
// for the bare language, so "en" resolves like "en-US".
func (b *Bundle) Register() error {
	for _, tag := range b.tags {
		tags := []language.Tag{tag}
		if base, conf := tag.Base(); conf != language.No {
			if bare := language.Make(base.String()); bare.String() != tag.String() {
				tags = append(tags, bare)
			}
		}
		for _, messages := range b.locales[tag.String()] {
			for _, key := range slices.Sorted(maps.Keys(messages)) {
				for _, t := range tags {
					if err := message.SetString(t, key, messages[key]); err != nil {
						return fmt.Errorf("register %s for %s: %w", key, t, err)
					}
				}
			}
		}
	}
	return nil
}

// Locales returns the loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	return slices.Sorted(maps.Keys(b.locales))
}

// Match picks the closest loaded locale for a tag or Accept-Language style
// value, defaulting to BaseLocale.
func (b *Bundle) Match(locale string) string {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(locale))
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return BaseLocale
	}
	return b.tags[index].String()
}

// Namespace returns a copy of one namespace for the matched locale, and the
// locale that supplied it.
func (b *Bundle) Namespace(locale, namespace string) (string, map[string]string) {
	resolved := b.Match(locale)
	messages, ok := b.locales[resolved][namespace]
	if !ok {
		resolved = BaseLocale
		messages = b.locales[BaseLocale][namespace]
	}
	return resolved, maps.Clone(messages)
}

// Printer returns a printer for the closest loaded locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(language.MustParse(Default().Match(locale)))
}

func mustLoadEmbedded() *Bundle {
	b, err := LoadFromFS(embedded)
	if err != nil {
		panic(err)
	}
	if err := b.Register(); err != nil {
		panic(err)
	}
	return b
}
