package hexagram

import "strconv"

// LineValue is the outcome of casting a single line.
type LineValue int

const (
	// OldYin is a changing broken line that becomes young yang.
	OldYin LineValue = 6
	// YoungYang is a static solid line.
	YoungYang LineValue = 7
	// YoungYin is a static broken line.
	YoungYin LineValue = 8
	// OldYang is a changing solid line that becomes young yin.
	OldYang LineValue = 9
)

// ParseLineValue validates a raw integer as a LineValue.
func ParseLineValue(v int) (LineValue, error) {
	lv := LineValue(v)
	if !lv.Valid() {
		return 0, invalidLineError(lv)
	}
	return lv, nil
}

// Valid reports whether v is one of the four cast outcomes.
func (v LineValue) Valid() bool {
	return v >= OldYin && v <= OldYang
}

// IsYang reports whether the line is drawn solid.
func (v LineValue) IsYang() bool {
	return v == YoungYang || v == OldYang
}

// IsMoving reports whether the line changes in the transformed hexagram.
func (v LineValue) IsMoving() bool {
	return v == OldYin || v == OldYang
}

// Settled returns the static value the line takes after transformation.
func (v LineValue) Settled() LineValue {
	switch v {
	case OldYin:
		return YoungYang
	case OldYang:
		return YoungYin
	default:
		return v
	}
}

// Bit returns '1' for yang lines and '0' for yin lines.
func (v LineValue) Bit() byte {
	if v.IsYang() {
		return '1'
	}
	return '0'
}

func (v LineValue) String() string {
	switch v {
	case OldYin:
		return "old yin"
	case YoungYang:
		return "young yang"
	case YoungYin:
		return "young yin"
	case OldYang:
		return "old yang"
	default:
		return "LineValue(" + strconv.Itoa(int(v)) + ")"
	}
}
