package target

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/ir"
)

func symbol(color, char string) Primitive {
	return PrimitiveFromMark(DecoratedSymbol{SymbolColor: color, Character: char})
}

func TestBaseTarget_FreshEachCall(t *testing.T) {
	a := BaseTarget()
	b := BaseTarget()

	fields := a.ToIR()
	fields["mark"] = ir.IRString("mutated")

	assert.Equal(t, ir.IRObject{"type": ir.IRString("primitive")}, a.ToIR())
	assert.Equal(t, ir.IRObject{"type": ir.IRString("primitive")}, b.ToIR())
}

func TestPrimitive_WithDoesNotMutate(t *testing.T) {
	base := BaseTarget()
	withMark := base.With(SpecialMark{Kind: MarkThat}.Fragment())

	assert.Equal(t, ir.IRObject{"type": ir.IRString("primitive")}, base.ToIR())
	assert.Equal(t, ir.IRString("primitive"), withMark.ToIR()["type"])
	assert.NotNil(t, withMark.ToIR()["mark"])
}

func TestPrimitive_ZeroValueIsBase(t *testing.T) {
	var p Primitive
	assert.Equal(t, BaseTarget().ToIR(), p.ToIR())
}

func TestBuildRange_SingleWithoutSpecifierIsIdentity(t *testing.T) {
	p := symbol("blue", "a")

	got, err := BuildRange([]Primitive{p}, "")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestBuildRange_SingleWithSpecifierStartsAtBase(t *testing.T) {
	p := symbol("blue", "a")

	got, err := BuildRange([]Primitive{p}, RangeIncludingBothEnds)
	require.NoError(t, err)

	r, ok := got.(*Range)
	require.True(t, ok)
	assert.Equal(t, BaseTarget(), r.Start)
	assert.Equal(t, p, r.End)
	assert.False(t, r.ExcludeStart)
	assert.False(t, r.ExcludeEnd)
}

func TestBuildRange_ImplicitStartIsFresh(t *testing.T) {
	p := symbol("blue", "a")

	first, err := BuildRange([]Primitive{p}, RangeExcludingBothEnds)
	require.NoError(t, err)
	second, err := BuildRange([]Primitive{p}, RangeExcludingBothEnds)
	require.NoError(t, err)

	start := first.(*Range).Start.ToIR()
	start["mark"] = ir.IRString("mutated")
	assert.Equal(t, BaseTarget().ToIR(), first.(*Range).Start.ToIR())
	assert.Equal(t, BaseTarget().ToIR(), second.(*Range).Start.ToIR())
}

func TestBuildRange_ExclusionFlags(t *testing.T) {
	a, b := symbol("blue", "a"), symbol("red", "b")

	tests := []struct {
		spec         RangeSpecifier
		excludeStart bool
		excludeEnd   bool
	}{
		{"", false, false},
		{RangeIncludingBothEnds, false, false},
		{RangeExcludingBothEnds, true, true},
		{RangeExcludingAnchor, true, false},
		{RangeExcludingActive, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			for _, prims := range [][]Primitive{{a}, {a, b}} {
				if tt.spec == "" && len(prims) == 1 {
					continue
				}
				got, err := BuildRange(prims, tt.spec)
				require.NoError(t, err)
				r := got.(*Range)
				assert.Equal(t, tt.excludeStart, r.ExcludeStart)
				assert.Equal(t, tt.excludeEnd, r.ExcludeEnd)
			}
		})
	}
}

func TestBuildRange_TwoTargets(t *testing.T) {
	a, b := symbol("blue", "a"), symbol("red", "b")

	got, err := BuildRange([]Primitive{a, b}, RangeExcludingAnchor)
	require.NoError(t, err)

	r := got.(*Range)
	assert.Equal(t, a, r.Start)
	assert.Equal(t, b, r.End)
	assert.True(t, r.ExcludeStart)
	assert.False(t, r.ExcludeEnd)
}

func TestBuildRange_Empty(t *testing.T) {
	_, err := BuildRange(nil, RangeIncludingBothEnds)
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestBuildTargetList(t *testing.T) {
	a, b, c := symbol("blue", "a"), symbol("red", "b"), symbol("default", "c")

	single, err := BuildTargetList([]Target{a})
	require.NoError(t, err)
	assert.Equal(t, a, single)

	got, err := BuildTargetList([]Target{a, b, c})
	require.NoError(t, err)
	l, ok := got.(*List)
	require.True(t, ok)
	assert.Equal(t, []Target{a, b, c}, l.Elements)

	_, err = BuildTargetList(nil)
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = BuildTargetList([]Target{a, l})
	assert.Error(t, err)
}

func TestRange_JSON(t *testing.T) {
	got, err := BuildRange([]Primitive{BaseTarget().With(SpecialMark{Kind: MarkCursor}.Fragment())}, RangeExcludingActive)
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(got.ToIR())
	require.NoError(t, err)
	assert.Equal(t,
		`{"end":{"mark":{"type":"cursor"},"type":"primitive"},"excludeEnd":true,"excludeStart":false,"start":{"type":"primitive"},"type":"range"}`,
		string(data))

	plain, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(plain))
}

func TestList_JSON(t *testing.T) {
	got, err := BuildTargetList([]Target{
		BaseTarget().With(SpecialMark{Kind: MarkThat}.Fragment()),
		BaseTarget().With(SpecialMark{Kind: MarkSource}.Fragment()),
	})
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(got.ToIR())
	require.NoError(t, err)
	assert.Equal(t,
		`{"elements":[{"mark":{"type":"that"},"type":"primitive"},{"mark":{"type":"source"},"type":"primitive"}],"type":"list"}`,
		string(data))
}

func TestCommand_ToIR(t *testing.T) {
	p := BaseTarget().With(SpecialMark{Kind: MarkThat}.Fragment())

	assert.Equal(t, p.ToIR(), Command{Target: p}.ToIR())
	assert.Equal(t, ir.IRObject{
		"action":  ir.IRString("remove"),
		"targets": ir.IRArray{p.ToIR()},
	}, Command{Action: "remove", Target: p}.ToIR())
}
