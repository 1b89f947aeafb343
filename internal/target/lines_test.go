package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/ir"
)

func TestResolveLineNumber_Directions(t *testing.T) {
	tests := []struct {
		name string
		dir  Direction
		n    int64
		want LinePosition
	}{
		{"row 1", DirectionRow, 1, LinePosition{LineNumber: 0}},
		{"row 5", DirectionRow, 5, LinePosition{LineNumber: 4}},
		{"up 3", DirectionUp, 3, LinePosition{LineNumber: -3, IsRelative: true}},
		{"down 3", DirectionDown, 3, LinePosition{LineNumber: 3, IsRelative: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ResolveLineNumber(LineNumberMatch{Anchor: LineCapture{Direction: tt.dir, LineNumber: tt.n}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Anchor)
			assert.Equal(t, tt.want, m.Active)
		})
	}
}

func TestResolveLineNumber_NoAnchorDirectionIsRow(t *testing.T) {
	m, err := ResolveLineNumber(LineNumberMatch{Anchor: LineCapture{LineNumber: 3}})
	require.NoError(t, err)

	want := LinePosition{LineNumber: 2, IsRelative: false}
	assert.Equal(t, want, m.Anchor)
	assert.Equal(t, want, m.Active)
}

func TestResolveLineNumber_ActiveInheritsDirection(t *testing.T) {
	m, err := ResolveLineNumber(LineNumberMatch{
		Anchor: LineCapture{Direction: DirectionUp, LineNumber: 2},
		Active: &LineCapture{LineNumber: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, LinePosition{LineNumber: -2, IsRelative: true}, m.Anchor)
	assert.Equal(t, LinePosition{LineNumber: -5, IsRelative: true}, m.Active)
}

func TestResolveLineNumber_ActiveOwnDirection(t *testing.T) {
	m, err := ResolveLineNumber(LineNumberMatch{
		Anchor: LineCapture{Direction: DirectionRow, LineNumber: 10},
		Active: &LineCapture{Direction: DirectionDown, LineNumber: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, LinePosition{LineNumber: 9}, m.Anchor)
	assert.Equal(t, LinePosition{LineNumber: 1, IsRelative: true}, m.Active)
}

func TestResolveLineNumber_UnknownDirection(t *testing.T) {
	_, err := ResolveLineNumber(LineNumberMatch{Anchor: LineCapture{Direction: "sideways", LineNumber: 1}})
	assert.True(t, IsLookupError(err))

	_, err = ResolveLineNumber(LineNumberMatch{
		Anchor: LineCapture{Direction: DirectionRow, LineNumber: 1},
		Active: &LineCapture{Direction: "sideways", LineNumber: 1},
	})
	assert.True(t, IsLookupError(err))
}

func TestResolveSimpleLineNumber_AgreesWithFullForm(t *testing.T) {
	for _, dir := range Directions() {
		for _, n := range []int64{1, 3, 42} {
			simple, err := ResolveSimpleLineNumber(dir, n)
			require.NoError(t, err)

			full, err := ResolveLineNumber(LineNumberMatch{Anchor: LineCapture{Direction: dir, LineNumber: n}})
			require.NoError(t, err)

			assert.Equal(t, full, simple, "%s %d", dir, n)
			assert.Equal(t, simple.Anchor, simple.Active)
		}
	}
}

func TestLineNumberMark_Fragment(t *testing.T) {
	m, err := ResolveSimpleLineNumber(DirectionDown, 2)
	require.NoError(t, err)

	pos := ir.IRObject{"lineNumber": ir.IRInt(2), "isRelative": ir.IRBool(true)}
	assert.Equal(t, ir.IRObject{
		"selectionType": ir.IRString("line"),
		"modifier": ir.IRObject{
			"type":   ir.IRString("lineNumber"),
			"anchor": pos,
			"active": pos,
		},
	}, m.Fragment())
}
