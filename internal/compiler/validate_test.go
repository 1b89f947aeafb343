package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/terms"
)

func validDefaults() *Defaults {
	return &Defaults{
		Domains: map[string]terms.Tables{
			DomainActions:         {"simple_action": {"chuck": "delete"}},
			DomainCompoundTargets: {"range_specifier": {"past": "rangeIncludingBothEnds"}},
			DomainSpecialMarks:    {"special_mark": {"this": "currentSelection"}},
		},
		Hats: Hats{
			Colors:          map[string]string{"blue": "blue", "rose": "red"},
			Shapes:          map[string]string{"fox": "fox"},
			ColorEnablement: map[string]bool{"blue": true, "red": true},
			ShapeEnablement: map[string]bool{"fox": false},
		},
		LineDirections: map[string]string{"row": "row", "up": "up", "down": "down"},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validDefaults()))
}

func TestValidateMissingDomain(t *testing.T) {
	d := validDefaults()
	delete(d.Domains, DomainSpecialMarks)

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingDomain, errs[0].Code)
	assert.Equal(t, "domain.special_marks", errs[0].Field)
}

func TestValidateDuplicateIdentifier(t *testing.T) {
	d := validDefaults()
	d.Domains[DomainActions]["simple_action"]["kill"] = "delete"

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateIdentifier, errs[0].Code)
	assert.Equal(t, "domain.actions.list.simple_action.kill", errs[0].Field)
	assert.Contains(t, errs[0].Error(), `already bound to "chuck"`)
}

func TestValidateAmbiguousSpokenForm(t *testing.T) {
	d := validDefaults()
	d.Domains[DomainActions]["swap_action"] = map[string]string{"chuck": "swap"}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrAmbiguousSpokenForm, errs[0].Code)
	assert.Equal(t, "domain.actions.list.swap_action.chuck", errs[0].Field)
}

func TestValidateEmptyTerm(t *testing.T) {
	d := validDefaults()
	d.Domains[DomainSpecialMarks]["special_mark"]["that"] = ""

	assert.Equal(t, []string{ErrEmptyTerm}, codes(Validate(d)))
}

func TestValidateEnablement(t *testing.T) {
	d := validDefaults()
	delete(d.Hats.ColorEnablement, "red")
	d.Hats.ShapeEnablement["bolt"] = true

	errs := Validate(d)
	assert.Equal(t, []string{ErrMissingEnablement, ErrUnknownEnablement}, codes(errs))
	assert.Equal(t, "hats.enablement.colors.red", errs[0].Field)
	assert.Equal(t, "hats.enablement.shapes.bolt", errs[1].Field)
}

func TestValidateUnknownDirection(t *testing.T) {
	d := validDefaults()
	d.LineDirections["left"] = "left"

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownDirection, errs[0].Code)
}

func TestValidateCollectsAll(t *testing.T) {
	d := validDefaults()
	delete(d.Domains, DomainActions)
	d.LineDirections["left"] = "left"
	d.Hats.Colors["navy"] = "blue"

	assert.Equal(t, []string{ErrMissingDomain, ErrDuplicateIdentifier, ErrUnknownDirection}, codes(Validate(d)))
}

func TestKnownDirections_MatchResolver(t *testing.T) {
	assert.Equal(t, []string{"row", "up", "down"}, KnownDirections)
}
