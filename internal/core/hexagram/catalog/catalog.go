// Package catalog holds the static table of the 64 hexagrams keyed by binary
// code. The table ships embedded and is validated once when first used.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

// Size is the number of distinct six-line figures.
const Size = 64

//go:embed catalog.yaml
var embedded []byte

// Record is one catalog entry.
type Record struct {
	Code      string    `yaml:"code" json:"code"`
	Number    int       `yaml:"number" json:"number"`
	Name      string    `yaml:"name" json:"name"`
	Hanja     string    `yaml:"hanja" json:"hanja"`
	Statement string    `yaml:"statement" json:"statement"`
	Lines     [6]string `yaml:"lines" json:"lines"`
}

// LineText returns the text at a 1-based position.
func (r Record) LineText(position int) (string, error) {
	if position < 1 || position > len(r.Lines) {
		return "", apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			fmt.Sprintf("line position out of range: %d", position),
			map[string]string{"Field": "position"},
		)
	}
	return r.Lines[position-1], nil
}

// DisplayName joins the Korean and ideographic names.
func (r Record) DisplayName() string {
	if r.Hanja == "" {
		return r.Name
	}
	return r.Name + " (" + r.Hanja + ")"
}

// Catalog is a read-only lookup table.
type Catalog struct {
	byCode  map[string]Record
	ordered []Record
}

type catalogFile struct {
	Hexagrams []fileRecord `yaml:"hexagrams"`
}

type fileRecord struct {
	Code      string   `yaml:"code"`
	Number    int      `yaml:"number"`
	Name      string   `yaml:"name"`
	Hanja     string   `yaml:"hanja"`
	Statement string   `yaml:"statement"`
	Lines     []string `yaml:"lines"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCatalogIntegrity, "decode catalog", err)
	}
	if len(file.Hexagrams) != Size {
		return nil, integrityError("catalog has %d records, want %d", len(file.Hexagrams), Size)
	}

	c := &Catalog{
		byCode:  make(map[string]Record, Size),
		ordered: make([]Record, 0, Size),
	}
	numbers := make(map[int]string, Size)
	for _, fr := range file.Hexagrams {
		if !validCode(fr.Code) {
			return nil, integrityError("record %d: invalid code %q", fr.Number, fr.Code)
		}
		if _, dup := c.byCode[fr.Code]; dup {
			return nil, integrityError("duplicate code %s", fr.Code)
		}
		if fr.Number < 1 || fr.Number > Size {
			return nil, integrityError("code %s: number %d out of range", fr.Code, fr.Number)
		}
		if other, dup := numbers[fr.Number]; dup {
			return nil, integrityError("number %d used by %s and %s", fr.Number, other, fr.Code)
		}
		if strings.TrimSpace(fr.Name) == "" || strings.TrimSpace(fr.Statement) == "" {
			return nil, integrityError("code %s: name and statement are required", fr.Code)
		}
		if len(fr.Lines) != 6 {
			return nil, integrityError("code %s: %d line texts, want 6", fr.Code, len(fr.Lines))
		}

		rec := Record{
			Code:      fr.Code,
			Number:    fr.Number,
			Name:      fr.Name,
			Hanja:     fr.Hanja,
			Statement: fr.Statement,
		}
		for i, text := range fr.Lines {
			if strings.TrimSpace(text) == "" {
				return nil, integrityError("code %s: line %d is empty", fr.Code, i+1)
			}
			rec.Lines[i] = text
		}
		numbers[fr.Number] = fr.Code
		c.byCode[fr.Code] = rec
		c.ordered = append(c.ordered, rec)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Number < c.ordered[j].Number })
	return c, nil
}

// Lookup returns the record for a binary code. A miss means the table is
// broken or the caller built the code by hand.
func (c *Catalog) Lookup(code string) (Record, error) {
	rec, ok := c.byCode[code]
	if !ok {
		return Record{}, apperrors.WithMetadata(
			apperrors.CodeCatalogIntegrity,
			fmt.Sprintf("no catalog record for code %q", code),
			map[string]string{"Code": code},
		)
	}
	return rec, nil
}

// ByNumber returns the record with the given King Wen number.
func (c *Catalog) ByNumber(number int) (Record, error) {
	if number < 1 || number > len(c.ordered) {
		return Record{}, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no hexagram number %d", number))
	}
	return c.ordered[number-1], nil
}

// Records returns every record in King Wen order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.ordered))
	copy(out, c.ordered)
	return out
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsing it on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embedded)
	})
	return defaultCatalog, defaultErr
}

// MustDefault returns the embedded catalog or panics. Call it during startup.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] != '0' && code[i] != '1' {
			return false
		}
	}
	return true
}

func integrityError(format string, args ...any) error {
	return apperrors.New(apperrors.CodeCatalogIntegrity, fmt.Sprintf(format, args...))
}
