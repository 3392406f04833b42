package coin

import (
	"math"
	"math/rand"
	"testing"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
)

// fixedSource replays values in order.
type fixedSource struct {
	values []float64
	next   int
}

func (s *fixedSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func TestTossFaces(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   hexagram.LineValue
	}{
		{name: "three tails", values: []float64{0, 0.1, 0.49}, want: hexagram.OldYin},
		{name: "one head", values: []float64{0.5, 0.2, 0.3}, want: hexagram.YoungYang},
		{name: "two heads", values: []float64{0.9, 0.2, 0.7}, want: hexagram.YoungYin},
		{name: "three heads", values: []float64{0.5, 0.75, 0.999}, want: hexagram.OldYang},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toss := New(&fixedSource{values: tt.values}).Toss()
			if toss.Value != tt.want {
				t.Fatalf("Toss value = %v, want %v", toss.Value, tt.want)
			}
			sum := 0
			for _, f := range toss.Faces {
				if f != Heads && f != Tails {
					t.Fatalf("unexpected face %d", f)
				}
				sum += int(f)
			}
			if sum != int(toss.Value) {
				t.Fatalf("faces sum to %d, value %d", sum, toss.Value)
			}
		})
	}
}

func TestDrawDistribution(t *testing.T) {
	const draws = 100000
	const tolerance = 0.01

	c := New(rand.New(rand.NewSource(20240601)))
	counts := map[hexagram.LineValue]int{}
	for i := 0; i < draws; i++ {
		v := c.Draw()
		if !v.Valid() {
			t.Fatalf("draw %d produced %d", i, v)
		}
		counts[v]++
	}

	want := map[hexagram.LineValue]float64{
		hexagram.OldYin:    0.125,
		hexagram.YoungYang: 0.375,
		hexagram.YoungYin:  0.375,
		hexagram.OldYang:   0.125,
	}
	for v, p := range want {
		got := float64(counts[v]) / draws
		if math.Abs(got-p) > tolerance {
			t.Errorf("P(%d) = %.4f, want %.3f ± %.2f", v, got, p, tolerance)
		}
	}
}

func TestSeededCastIsReplayable(t *testing.T) {
	first, firstTosses := NewSeeded(42).CastHexagram()
	second, secondTosses := NewSeeded(42).CastHexagram()
	if first != second {
		t.Fatalf("seeded casts differ: %v vs %v", first.Lines(), second.Lines())
	}
	if len(firstTosses) != hexagram.LineCount || len(secondTosses) != hexagram.LineCount {
		t.Fatalf("tosses = %d/%d", len(firstTosses), len(secondTosses))
	}
	for i, toss := range firstTosses {
		if toss != secondTosses[i] {
			t.Fatalf("toss %d differs", i)
		}
		if got, _ := first.Line(i + 1); got != toss.Value {
			t.Fatalf("line %d = %v, toss %v", i+1, got, toss.Value)
		}
	}
}

func TestNewRandom(t *testing.T) {
	c, seed, err := NewRandom()
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	h, _ := c.CastHexagram()
	replay, _ := NewSeeded(seed).CastHexagram()
	if h != replay {
		t.Fatal("NewRandom seed does not replay the cast")
	}
}
