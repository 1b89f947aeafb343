package target

// Direction is the spoken prefix of a line number.
type Direction string

const (
	DirectionRow  Direction = "row"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

type direction struct {
	isRelative bool
	transform  func(n int64) int64
}

// directions maps a spoken direction to how its number is interpreted.
// Rows are one-based when spoken and zero-based on the wire.
var directions = map[Direction]direction{
	DirectionRow:  {isRelative: false, transform: func(n int64) int64 { return n - 1 }},
	DirectionUp:   {isRelative: true, transform: func(n int64) int64 { return -n }},
	DirectionDown: {isRelative: true, transform: func(n int64) int64 { return n }},
}

// Directions lists the spoken line directions in grammar order.
func Directions() []Direction {
	return []Direction{DirectionRow, DirectionUp, DirectionDown}
}

// LineCapture is one spoken line reference: an optional direction and a number.
// An empty Direction means the direction was not spoken.
type LineCapture struct {
	Direction  Direction
	LineNumber int64
}

// LineNumberMatch is the capture for the full line-number form
// "[direction] N [past [direction] M]". Active is nil when no "past" part
// was spoken.
type LineNumberMatch struct {
	Anchor LineCapture
	Active *LineCapture
}

// ResolveLineNumber builds a line-number mark from a full capture.
//
// An anchor without a direction is a row. An active part without a
// direction inherits the anchor's; a missing active part equals the anchor.
func ResolveLineNumber(m LineNumberMatch) (LineNumberMark, error) {
	anchorDir := m.Anchor.Direction
	if anchorDir == "" {
		anchorDir = DirectionRow
	}
	anchor, err := linePosition(anchorDir, m.Anchor.LineNumber)
	if err != nil {
		return LineNumberMark{}, err
	}

	if m.Active == nil {
		return LineNumberMark{Anchor: anchor, Active: anchor}, nil
	}

	activeDir := m.Active.Direction
	if activeDir == "" {
		activeDir = anchorDir
	}
	active, err := linePosition(activeDir, m.Active.LineNumber)
	if err != nil {
		return LineNumberMark{}, err
	}
	return LineNumberMark{Anchor: anchor, Active: active}, nil
}

// ResolveSimpleLineNumber is the fast path for "up N" / "down N" (and "row N"):
// a single position used for both ends.
func ResolveSimpleLineNumber(dir Direction, n int64) (LineNumberMark, error) {
	pos, err := linePosition(dir, n)
	if err != nil {
		return LineNumberMark{}, err
	}
	return LineNumberMark{Anchor: pos, Active: pos}, nil
}

func linePosition(dir Direction, n int64) (LinePosition, error) {
	d, ok := directions[dir]
	if !ok {
		return LinePosition{}, &LookupError{Table: "line_directions", Identifier: string(dir)}
	}
	return LinePosition{LineNumber: d.transform(n), IsRelative: d.isRelative}, nil
}
