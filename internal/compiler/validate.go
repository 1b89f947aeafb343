package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hatgram/internal/target"
)

// Validation error codes (E100-E199)
const (
	ErrMissingDomain       = "E100" // required domain absent
	ErrEmptyTerm           = "E101" // empty spoken form or identifier
	ErrDuplicateIdentifier = "E102" // identifier used twice in one list
	ErrAmbiguousSpokenForm = "E103" // spoken form in two lists of one domain
	ErrUnknownEnablement   = "E104" // enablement for a style no table defines
	ErrMissingEnablement   = "E105" // style without an enablement default
	ErrUnknownDirection    = "E106" // line direction the resolver does not support
)

// RequiredDomains must be present in every defaults set.
var RequiredDomains = []string{DomainActions, DomainCompoundTargets, DomainSpecialMarks}

// KnownDirections are the line directions the resolver understands.
var KnownDirections = func() []string {
	var out []string
	for _, d := range target.Directions() {
		out = append(out, string(d))
	}
	return out
}()

// ValidationError represents a defaults validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled defaults. Returns all errors found (does not
// fail-fast), in a deterministic order.
func Validate(d *Defaults) []ValidationError {
	var errs []ValidationError

	for _, name := range RequiredDomains {
		if _, ok := d.Domains[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   "domain." + name,
				Message: fmt.Sprintf("required domain %q is missing", name),
				Code:    ErrMissingDomain,
			})
		}
	}

	for _, name := range d.DomainNames() {
		errs = append(errs, validateDomain("domain."+name, d.Domains[name])...)
	}

	errs = append(errs, validateList("hats.colors", d.Hats.Colors)...)
	errs = append(errs, validateList("hats.shapes", d.Hats.Shapes)...)
	errs = append(errs, validateEnablement("hats.enablement.colors", d.Hats.Colors, d.Hats.ColorEnablement)...)
	errs = append(errs, validateEnablement("hats.enablement.shapes", d.Hats.Shapes, d.Hats.ShapeEnablement)...)

	errs = append(errs, validateList("lines.direction", d.LineDirections)...)
	for _, spoken := range sortedKeys(d.LineDirections) {
		dir := d.LineDirections[spoken]
		if !slices.Contains(KnownDirections, dir) {
			errs = append(errs, ValidationError{
				Field:   "lines.direction." + spoken,
				Message: fmt.Sprintf("unknown direction %q (want one of %s)", dir, strings.Join(KnownDirections, ", ")),
				Code:    ErrUnknownDirection,
			})
		}
	}

	return errs
}

func validateDomain(field string, tables map[string]map[string]string) []ValidationError {
	var errs []ValidationError

	owner := make(map[string]string)
	for _, list := range sortedKeys(tables) {
		errs = append(errs, validateList(field+".list."+list, tables[list])...)

		for _, spoken := range sortedKeys(tables[list]) {
			if prev, ok := owner[spoken]; ok {
				errs = append(errs, ValidationError{
					Field:   field + ".list." + list + "." + spoken,
					Message: fmt.Sprintf("spoken form %q is also in list %q", spoken, prev),
					Code:    ErrAmbiguousSpokenForm,
				})
				continue
			}
			owner[spoken] = list
		}
	}
	return errs
}

func validateList(field string, list map[string]string) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]string)
	for _, spoken := range sortedKeys(list) {
		id := list[spoken]
		if strings.TrimSpace(spoken) == "" || strings.TrimSpace(id) == "" {
			errs = append(errs, ValidationError{
				Field:   field + "." + spoken,
				Message: "spoken form and identifier must be non-empty",
				Code:    ErrEmptyTerm,
			})
			continue
		}
		if prev, ok := seen[id]; ok {
			errs = append(errs, ValidationError{
				Field:   field + "." + spoken,
				Message: fmt.Sprintf("identifier %q already bound to %q", id, prev),
				Code:    ErrDuplicateIdentifier,
			})
			continue
		}
		seen[id] = spoken
	}
	return errs
}

func validateEnablement(field string, styles map[string]string, enablement map[string]bool) []ValidationError {
	var errs []ValidationError

	ids := make(map[string]bool, len(styles))
	for _, id := range styles {
		ids[id] = true
	}

	for _, id := range sortedKeys(ids) {
		if _, ok := enablement[id]; !ok {
			errs = append(errs, ValidationError{
				Field:   field + "." + id,
				Message: fmt.Sprintf("style %q has no enablement default", id),
				Code:    ErrMissingEnablement,
			})
		}
	}
	for _, id := range sortedKeys(enablement) {
		if !ids[id] {
			errs = append(errs, ValidationError{
				Field:   field + "." + id,
				Message: fmt.Sprintf("enablement for unknown style %q", id),
				Code:    ErrUnknownEnablement,
			})
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
