// Package i18n renders localized error messages from the errors namespace
// of the embedded locale catalogs.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
)

// Catalog holds the error message templates of one locale, keyed by code.
type Catalog struct {
	locale    string
	templates map[string]*template.Template
	raw       map[string]string
}

var catalogs sync.Map // resolved locale -> *Catalog

// GetCatalog returns the catalog closest to locale, falling back to the base
// locale.
func GetCatalog(locale string) *Catalog {
	resolved, messages := i18ncatalog.Default().Namespace(locale, "errors")
	if c, ok := catalogs.Load(resolved); ok {
		return c.(*Catalog)
	}
	byCode := make(map[string]string, len(messages))
	for key, value := range messages {
		byCode[strings.TrimPrefix(key, "errors.")] = value
	}
	c, _ := catalogs.LoadOrStore(resolved, NewCatalog(resolved, byCode))
	return c.(*Catalog)
}

// NewCatalog parses templates up front. Templates that fail to parse are
// rendered verbatim.
func NewCatalog(locale string, messages map[string]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		templates: make(map[string]*template.Template, len(messages)),
		raw:       make(map[string]string, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if t, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the template for code with metadata. Unknown codes render
// as the code itself.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	t, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var b strings.Builder
	if err := t.Execute(&b, metadata); err != nil {
		return raw
	}
	return b.String()
}
