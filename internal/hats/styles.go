package hats

import (
	"slices"

	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/terms"
)

// ActiveStyles returns the hat_styles tables for the given settings: every
// color and shape whose identifier is enabled after merging defaults with
// the override.
func ActiveStyles(h compiler.Hats, s Settings) terms.Tables {
	colors := Enablement(h.ColorEnablement, s.Colors)
	shapes := Enablement(h.ShapeEnablement, s.Shapes)

	return terms.Tables{
		compiler.ListHatColor: enabled(h.Colors, colors),
		compiler.ListHatShape: enabled(h.Shapes, shapes),
	}
}

func enabled(styles map[string]string, on map[string]bool) map[string]string {
	out := make(map[string]string)
	for spoken, id := range styles {
		if on[id] {
			out[spoken] = id
		}
	}
	return out
}

// StyleIdentifiers returns every color and shape identifier, enabled or
// not. Override rows for a disabled style are skipped rather than rejected.
func StyleIdentifiers(h compiler.Hats) []string {
	ids := make([]string, 0, len(h.Colors)+len(h.Shapes))
	for _, id := range h.Colors {
		ids = append(ids, id)
	}
	for _, id := range h.Shapes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
