package hexagram

// Builder accumulates cast lines bottom to top. A single caster owns a
// Builder; it is not safe for concurrent use.
type Builder struct {
	lines []LineValue
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{lines: make([]LineValue, 0, LineCount)}
}

// AppendLine adds the next line above the ones already cast.
func (b *Builder) AppendLine(v LineValue) error {
	if len(b.lines) >= LineCount {
		return ErrHexagramComplete
	}
	if !v.Valid() {
		return invalidLineError(v)
	}
	b.lines = append(b.lines, v)
	return nil
}

// Len returns how many lines have been cast.
func (b *Builder) Len() int {
	return len(b.lines)
}

// IsComplete reports whether six lines are present.
func (b *Builder) IsComplete() bool {
	return len(b.lines) == LineCount
}

// Lines returns a copy of the lines cast so far.
func (b *Builder) Lines() []LineValue {
	out := make([]LineValue, len(b.lines))
	copy(out, b.lines)
	return out
}

// Hexagram freezes the six cast lines.
func (b *Builder) Hexagram() (Hexagram, error) {
	if !b.IsComplete() {
		return Hexagram{}, ErrHexagramIncomplete
	}
	return FromLines(b.lines)
}

// Reset discards the cast lines.
func (b *Builder) Reset() {
	b.lines = b.lines[:0]
}
