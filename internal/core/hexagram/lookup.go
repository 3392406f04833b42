package hexagram

import (
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
)

// Lookup resolves a binary code against the embedded catalog.
func Lookup(code string) (catalog.Record, error) {
	c, err := catalog.Default()
	if err != nil {
		return catalog.Record{}, err
	}
	return c.Lookup(code)
}

// Reading is a hexagram resolved against the catalog. Transformed and
// TransformedRecord are only set when the hexagram has moving lines.
type Reading struct {
	Hexagram          Hexagram
	Record            catalog.Record
	MovingLines       []int
	Transformed       *Hexagram
	TransformedRecord *catalog.Record
}

// Resolve looks up the original and, when lines move, the transformed
// hexagram. Each code is looked up once.
func Resolve(c *catalog.Catalog, h Hexagram) (Reading, error) {
	if h.IsZero() {
		return Reading{}, ErrHexagramIncomplete
	}
	rec, err := c.Lookup(h.BinaryCode())
	if err != nil {
		return Reading{}, err
	}
	reading := Reading{
		Hexagram:    h,
		Record:      rec,
		MovingLines: h.MovingLines(),
	}
	if !h.HasChange() {
		return reading, nil
	}

	transformed := h.Transformed()
	changed, err := c.Lookup(transformed.BinaryCode())
	if err != nil {
		return Reading{}, err
	}
	reading.Transformed = &transformed
	reading.TransformedRecord = &changed
	return reading, nil
}
