// Package hexagram builds six-line figures from cast line values and derives
// their binary codes, moving lines and transformed figures.
//
// Positions are 1-based, 1 at the bottom and 6 at the top. Binary codes list
// lines bottom to top with '1' for yang and '0' for yin.
package hexagram

import (
	"strconv"

	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

// LineCount is the number of lines in a complete hexagram.
const LineCount = 6

// Hexagram is a complete, immutable six-line figure.
//
// The zero value is not a valid hexagram; use FromLines, FromCode or a Builder.
type Hexagram struct {
	lines [LineCount]LineValue
}

// FromLines builds a hexagram from six line values ordered bottom to top.
func FromLines(lines []LineValue) (Hexagram, error) {
	if len(lines) > LineCount {
		return Hexagram{}, ErrHexagramComplete
	}
	if len(lines) < LineCount {
		return Hexagram{}, ErrHexagramIncomplete
	}
	var h Hexagram
	for i, v := range lines {
		if !v.Valid() {
			return Hexagram{}, invalidLineError(v)
		}
		h.lines[i] = v
	}
	return h, nil
}

// MustFromLines is FromLines for literals known to be valid.
func MustFromLines(lines ...LineValue) Hexagram {
	h, err := FromLines(lines)
	if err != nil {
		panic(err)
	}
	return h
}

// FromCode builds a hexagram of static lines from a six-character binary code.
func FromCode(code string) (Hexagram, error) {
	if len(code) != LineCount {
		return Hexagram{}, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"binary code must have six characters: "+strconv.Quote(code),
			map[string]string{"Field": "code"},
		)
	}
	var h Hexagram
	for i := 0; i < LineCount; i++ {
		switch code[i] {
		case '1':
			h.lines[i] = YoungYang
		case '0':
			h.lines[i] = YoungYin
		default:
			return Hexagram{}, apperrors.WithMetadata(
				apperrors.CodeInvalidArgument,
				"binary code must contain only 0 and 1: "+strconv.Quote(code),
				map[string]string{"Field": "code"},
			)
		}
	}
	return h, nil
}

// IsZero reports whether h was never built.
func (h Hexagram) IsZero() bool {
	return h.lines[0] == 0
}

// Lines returns a copy of the line values, bottom to top.
func (h Hexagram) Lines() []LineValue {
	out := make([]LineValue, LineCount)
	copy(out, h.lines[:])
	return out
}

// Line returns the value at a 1-based position.
func (h Hexagram) Line(position int) (LineValue, error) {
	if position < 1 || position > LineCount {
		return 0, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"line position out of range: "+strconv.Itoa(position),
			map[string]string{"Field": "position"},
		)
	}
	return h.lines[position-1], nil
}

// BinaryCode returns the bottom-to-top yin/yang code.
func (h Hexagram) BinaryCode() string {
	var b [LineCount]byte
	for i, v := range h.lines {
		b[i] = v.Bit()
	}
	return string(b[:])
}

// MovingLines returns the ascending 1-based positions of changing lines.
func (h Hexagram) MovingLines() []int {
	var positions []int
	for i, v := range h.lines {
		if v.IsMoving() {
			positions = append(positions, i+1)
		}
	}
	return positions
}

// HasChange reports whether any line is moving.
func (h Hexagram) HasChange() bool {
	for _, v := range h.lines {
		if v.IsMoving() {
			return true
		}
	}
	return false
}

// Transformed settles every moving line. A hexagram without moving lines is
// returned unchanged.
func (h Hexagram) Transformed() Hexagram {
	var out Hexagram
	for i, v := range h.lines {
		out.lines[i] = v.Settled()
	}
	return out
}

// LowerTrigram returns the code of lines 1-3.
func (h Hexagram) LowerTrigram() string {
	return h.BinaryCode()[:3]
}

// UpperTrigram returns the code of lines 4-6.
func (h Hexagram) UpperTrigram() string {
	return h.BinaryCode()[3:]
}

// DeriveBinaryCode returns the code for a line sequence, failing unless it
// holds exactly six valid lines.
func DeriveBinaryCode(lines []LineValue) (string, error) {
	h, err := FromLines(lines)
	if err != nil {
		return "", err
	}
	return h.BinaryCode(), nil
}

// ComputeTransformed is the functional form of Hexagram.Transformed.
func ComputeTransformed(h Hexagram) Hexagram {
	return h.Transformed()
}

// MovingPositions returns the ascending 1-based moving positions of h.
func MovingPositions(h Hexagram) []int {
	return h.MovingLines()
}
