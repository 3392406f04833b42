// Package coin casts line values with the three-coin method.
//
// Each coin lands tails (2) or heads (3); the three faces summed give a
// value from 6 to 9. Randomness is injected so casts can be replayed.
package coin

import (
	"math/rand"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/random"
)

// Face is the value of a single coin.
type Face int

const (
	// Tails counts as 2.
	Tails Face = 2
	// Heads counts as 3.
	Heads Face = 3
)

// CoinsPerLine is the number of coins thrown for one line.
const CoinsPerLine = 3

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Toss is the outcome of throwing the coins once.
type Toss struct {
	Faces [CoinsPerLine]Face
	Value hexagram.LineValue
}

// Caster draws line values from a Source.
type Caster struct {
	src Source
}

// New returns a caster over src.
func New(src Source) *Caster {
	return &Caster{src: src}
}

// NewSeeded returns a deterministic caster.
func NewSeeded(seed int64) *Caster {
	return New(rand.New(rand.NewSource(seed)))
}

// NewRandom returns a caster seeded from crypto/rand, along with the seed so
// the cast can be replayed.
func NewRandom() (*Caster, int64, error) {
	seed, err := random.NewSeed()
	if err != nil {
		return nil, 0, err
	}
	return NewSeeded(seed), seed, nil
}

// Toss throws three coins.
func (c *Caster) Toss() Toss {
	var t Toss
	sum := 0
	for i := range t.Faces {
		f := Tails
		if c.src.Float64() >= 0.5 {
			f = Heads
		}
		t.Faces[i] = f
		sum += int(f)
	}
	t.Value = hexagram.LineValue(sum)
	return t
}

// Draw returns the line value of one toss.
func (c *Caster) Draw() hexagram.LineValue {
	return c.Toss().Value
}

// CastHexagram draws six lines bottom to top.
func (c *Caster) CastHexagram() (hexagram.Hexagram, []Toss) {
	b := hexagram.NewBuilder()
	tosses := make([]Toss, 0, hexagram.LineCount)
	for !b.IsComplete() {
		t := c.Toss()
		tosses = append(tosses, t)
		// Toss always yields 6..9 and the loop stops at six lines.
		_ = b.AppendLine(t.Value)
	}
	h, _ := b.Hexagram()
	return h, tosses
}
