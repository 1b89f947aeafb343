// Package compiler compiles default term tables written in CUE.
//
// The built-in defaults live in defaults/*.cue and are embedded in the
// binary. A user may compile an alternative defaults directory with the
// same layout:
//
//	domain: <name>: list: <list>: { <spoken form>: <identifier> }
//	hats: colors|shapes: { <spoken form>: <identifier> }
//	hats: enablement: colors|shapes: { <identifier>: bool }
//	lines: direction: { <spoken form>: <direction> }
package compiler

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hatgram/internal/terms"
)

//go:embed defaults/*.cue
var builtinFS embed.FS

// Domain names with a plain list layout.
const (
	DomainActions         = "actions"
	DomainCompoundTargets = "compound_targets"
	DomainSpecialMarks    = "special_marks"

	// DomainHatStyles is derived from Hats and the enablement settings.
	DomainHatStyles = "hat_styles"
)

// Hat style list names inside the hat_styles domain.
const (
	ListHatColor = "hat_color"
	ListHatShape = "hat_shape"
)

// Hats holds the hat style tables.
type Hats struct {
	Colors map[string]string // spoken form -> color identifier
	Shapes map[string]string // spoken form -> shape identifier

	ColorEnablement map[string]bool
	ShapeEnablement map[string]bool
}

// Defaults is the compiled set of default tables.
type Defaults struct {
	Domains        map[string]terms.Tables
	Hats           Hats
	LineDirections map[string]string
}

// Domain returns the tables of a plain domain, or nil.
func (d *Defaults) Domain(name string) terms.Tables {
	return d.Domains[name]
}

// DomainNames returns the plain domain names in sorted order.
func (d *Defaults) DomainNames() []string {
	names := make([]string, 0, len(d.Domains))
	for name := range d.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin compiles the embedded defaults.
func Builtin() (*Defaults, error) {
	ctx := cuecontext.New()

	entries, err := fs.ReadDir(builtinFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}

	var v cue.Value
	for i, e := range entries {
		name := path.Join("defaults", e.Name())
		src, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		fv := ctx.CompileBytes(src, cue.Filename(name))
		if err := fv.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if i == 0 {
			v = fv
		} else {
			v = v.Unify(fv)
		}
	}
	return Compile(v)
}

// CompileDir loads the CUE package in dir and compiles it.
func CompileDir(dir string) (*Defaults, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: "no CUE instances loaded from " + dir}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := ctx.BuildInstance(inst)
	return Compile(v)
}

// Compile extracts the default tables from a CUE value.
func Compile(v cue.Value) (*Defaults, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &Defaults{Domains: make(map[string]terms.Tables)}

	domains := v.LookupPath(cue.ParsePath("domain"))
	if !domains.Exists() {
		return nil, &CompileError{Field: "domain", Message: "domain is required", Pos: v.Pos()}
	}
	iter, err := domains.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		tables, err := compileDomain(name, iter.Value())
		if err != nil {
			return nil, err
		}
		d.Domains[name] = tables
	}

	if d.Hats, err = compileHats(v.LookupPath(cue.ParsePath("hats"))); err != nil {
		return nil, err
	}

	linesVal := v.LookupPath(cue.ParsePath("lines.direction"))
	if !linesVal.Exists() {
		return nil, &CompileError{Field: "lines.direction", Message: "lines.direction is required", Pos: v.Pos()}
	}
	if d.LineDirections, err = stringMap(linesVal, "lines.direction"); err != nil {
		return nil, err
	}

	return d, nil
}

func compileDomain(name string, v cue.Value) (terms.Tables, error) {
	field := "domain." + name
	lists := v.LookupPath(cue.ParsePath("list"))
	if !lists.Exists() {
		return nil, &CompileError{Field: field, Message: "list is required", Pos: v.Pos()}
	}

	iter, err := lists.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	tables := make(terms.Tables)
	for iter.Next() {
		list := iter.Selector().Unquoted()
		m, err := stringMap(iter.Value(), field+".list."+list)
		if err != nil {
			return nil, err
		}
		tables[list] = m
	}
	if len(tables) == 0 {
		return nil, &CompileError{Field: field, Message: "at least one list is required", Pos: v.Pos()}
	}
	return tables, nil
}

func compileHats(v cue.Value) (Hats, error) {
	var h Hats
	if !v.Exists() {
		return h, &CompileError{Field: "hats", Message: "hats is required"}
	}

	var err error
	if h.Colors, err = requiredStringMap(v, "hats", "colors"); err != nil {
		return h, err
	}
	if h.Shapes, err = requiredStringMap(v, "hats", "shapes"); err != nil {
		return h, err
	}
	if h.ColorEnablement, err = boolMap(v.LookupPath(cue.ParsePath("enablement.colors")), "hats.enablement.colors"); err != nil {
		return h, err
	}
	if h.ShapeEnablement, err = boolMap(v.LookupPath(cue.ParsePath("enablement.shapes")), "hats.enablement.shapes"); err != nil {
		return h, err
	}
	return h, nil
}

func requiredStringMap(parent cue.Value, prefix, name string) (map[string]string, error) {
	v := parent.LookupPath(cue.ParsePath(name))
	if !v.Exists() {
		return nil, &CompileError{Field: prefix + "." + name, Message: name + " is required", Pos: parent.Pos()}
	}
	return stringMap(v, prefix+"."+name)
}

func stringMap(v cue.Value, field string) (map[string]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "expected a struct of spoken form to identifier", Pos: v.Pos()}
	}
	out := make(map[string]string)
	for iter.Next() {
		if err := iter.Value().Err(); err != nil {
			return nil, formatCUEError(err)
		}
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Selector().Unquoted(),
				Message: "identifier must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out[iter.Selector().Unquoted()] = s
	}
	return out, nil
}

// boolMap reads an optional struct of identifier -> bool.
func boolMap(v cue.Value, field string) (map[string]bool, error) {
	out := make(map[string]bool)
	if !v.Exists() {
		return out, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "expected a struct of identifier to bool", Pos: v.Pos()}
	}
	for iter.Next() {
		if err := iter.Value().Err(); err != nil {
			return nil, formatCUEError(err)
		}
		b, err := iter.Value().Bool()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Selector().Unquoted(),
				Message: "enablement must be a bool",
				Pos:     iter.Value().Pos(),
			}
		}
		out[iter.Selector().Unquoted()] = b
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
