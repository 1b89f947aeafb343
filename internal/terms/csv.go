package terms

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Header is the first row of every override file.
var Header = []string{"Spoken form", "Cursorless identifier"}

type overrideRow struct {
	line       int
	spokenForm string
	identifier string
}

// readOverrides parses an override file. Structurally malformed rows are
// returned as row errors; only an unreadable file or a bad header fails.
func readOverrides(r io.Reader, domain, file string) ([]overrideRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: %w: empty file", file, ErrBadHeader)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	if len(header) != len(Header) ||
		strings.TrimSpace(header[0]) != Header[0] ||
		strings.TrimSpace(header[1]) != Header[1] {
		return nil, nil, fmt.Errorf("%s: %w: got %q", file, ErrBadHeader, strings.Join(header, ","))
	}

	var rows []overrideRow
	var rejected []RowError
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejected = append(rejected, RowError{Domain: domain, File: file, Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
		line, _ := cr.FieldPos(0)

		if len(record) != 2 {
			rejected = append(rejected, RowError{
				Domain: domain, File: file, Line: line,
				Reason: fmt.Sprintf("expected 2 fields, got %d", len(record)),
			})
			continue
		}
		spoken := strings.TrimSpace(record[0])
		id := strings.TrimSpace(record[1])
		if spoken == "" || id == "" {
			rejected = append(rejected, RowError{
				Domain: domain, File: file, Line: line,
				SpokenForm: spoken, Identifier: id,
				Reason: "empty spoken form or identifier",
			})
			continue
		}
		rows = append(rows, overrideRow{line: line, spokenForm: spoken, identifier: id})
	}
	return rows, rejected, nil
}

// writeDefaults writes an override file that reproduces the defaults.
// Lists and spoken forms are sorted so the file is stable across runs.
func writeDefaults(w io.Writer, defaults Tables) error {
	var rows [][]string
	for _, name := range defaults.ListNames() {
		list := defaults[name]
		for _, spoken := range slices.Sorted(maps.Keys(list)) {
			rows = append(rows, []string{spoken, list[spoken]})
		}
	}
	return writeRows(w, rows)
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteOverrides writes an override file holding rows, each a
// [spoken form, identifier] pair, under the standard header.
func WriteOverrides(path string, rows [][]string) error {
	var buf bytes.Buffer
	if err := writeRows(&buf, rows); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

type mergeResult struct {
	tables   Tables
	applied  int
	skipped  int
	rejected []RowError
}

// merge applies override rows to the defaults.
//
// A row's identifier selects the list it belongs to. Every identifier that
// appears in a row loses its default spoken forms, so rows may trade
// defaults between identifiers in any order. A row may not take a spoken
// form still held by an identifier the file leaves alone. Identifiers in
// allowed but in no default list (for example a disabled hat shape) are
// skipped without complaint; anything else unknown is rejected.
func merge(domain, file string, defaults Tables, allowed map[string]struct{}, rows []overrideRow) mergeResult {
	listOf := make(map[string]string)
	for name, list := range defaults {
		for _, id := range list {
			listOf[id] = name
		}
	}

	res := mergeResult{tables: defaults.Clone()}

	overridden := make(map[string]bool)
	for _, row := range rows {
		if _, ok := listOf[row.identifier]; ok {
			overridden[row.identifier] = true
		}
	}
	for _, list := range res.tables {
		for spoken, id := range list {
			if overridden[id] {
				delete(list, spoken)
			}
		}
	}

	seen := make(map[string]int)
	applied := make(map[string]bool)
	for _, row := range rows {
		name, ok := listOf[row.identifier]
		if !ok {
			if _, ok := allowed[row.identifier]; ok {
				res.skipped++
				continue
			}
			res.rejected = append(res.rejected, RowError{
				Domain: domain, File: file, Line: row.line,
				SpokenForm: row.spokenForm, Identifier: row.identifier,
				Reason:     fmt.Sprintf("unknown identifier %q", row.identifier),
				Suggestion: suggest(row.identifier, knownIdentifiers(listOf, allowed)),
			})
			continue
		}

		key := name + "\x00" + row.spokenForm
		if first, dup := seen[key]; dup {
			res.rejected = append(res.rejected, RowError{
				Domain: domain, File: file, Line: row.line,
				SpokenForm: row.spokenForm, Identifier: row.identifier,
				Reason: fmt.Sprintf("spoken form %q already used on line %d", row.spokenForm, first),
			})
			continue
		}

		list := res.tables[name]
		// Only defaults of identifiers without rows are left to collide with.
		if holder, taken := list[row.spokenForm]; taken {
			res.rejected = append(res.rejected, RowError{
				Domain: domain, File: file, Line: row.line,
				SpokenForm: row.spokenForm, Identifier: row.identifier,
				Reason: fmt.Sprintf("spoken form %q is the default for %q", row.spokenForm, holder),
			})
			continue
		}
		seen[key] = row.line

		list[row.spokenForm] = row.identifier
		applied[row.identifier] = true
		res.applied++
	}

	// An identifier whose rows were all rejected keeps its defaults, where
	// no accepted row has taken them.
	for name, list := range defaults {
		for spoken, id := range list {
			if !overridden[id] || applied[id] {
				continue
			}
			if _, taken := res.tables[name][spoken]; !taken {
				res.tables[name][spoken] = id
			}
		}
	}
	return res
}

func knownIdentifiers(listOf map[string]string, allowed map[string]struct{}) []string {
	ids := make([]string, 0, len(listOf)+len(allowed))
	for id := range listOf {
		ids = append(ids, id)
	}
	for id := range allowed {
		if _, ok := listOf[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// suggest returns the closest known identifier to id, or "" when nothing is
// close. Subsequence matches are preferred; otherwise the smallest edit
// distance within half the identifier's length wins.
func suggest(id string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(id, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(id)/2+1
	lower := strings.ToLower(id)
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
