package grid

import (
	"encoding/json"
	"net/url"
	"strings"
)

// MonthAll is the sentinel month value meaning "no month filter".
// Compared after trimming and uppercasing.
const MonthAll = "TUTTO"

// Months are the selectable presentation months, sentinel last
var Months = []string{
	"GENNAIO", "FEBBRAIO", "MARZO", "APRILE", "MAGGIO", "GIUGNO",
	"LUGLIO", "AGOSTO", "SETTEMBRE", "OTTOBRE", "NOVEMBRE", "DICEMBRE",
	MonthAll,
}

// SearchTerm is one per-column search: a plain substring term, or an
// anchored-regex term requesting exact matching when Value is wrapped
// in ^...$ and Regex is set.
type SearchTerm struct {
	Value string `json:"value"`
	Regex bool   `json:"regex"`
}

// IsExact reports whether the term requests exact (case-insensitive,
// trimmed) equality instead of substring containment
func (t SearchTerm) IsExact() bool {
	return t.Regex && strings.HasPrefix(t.Value, "^") && strings.HasSuffix(t.Value, "$") && len(t.Value) >= 2
}

// ExactValue strips the ^...$ anchors from an exact term
func (t SearchTerm) ExactValue() string {
	return strings.TrimSuffix(strings.TrimPrefix(t.Value, "^"), "$")
}

// FilterSpec describes one filter request: an optional categorical month, an
// optional free-text global search, and per-column search terms. Empty values
// mean "no filter" for that part.
type FilterSpec struct {
	Month          string
	GlobalSearch   string
	ColumnSearches map[string]SearchTerm
}

// HasMonth reports whether the month filter is active, i.e. present and not
// the MonthAll sentinel after normalization
func (f FilterSpec) HasMonth() bool {
	m := strings.ToUpper(strings.TrimSpace(f.Month))
	return m != "" && m != MonthAll
}

// NormalizedMonth returns the trimmed, uppercased month value
func (f FilterSpec) NormalizedMonth() string {
	return strings.ToUpper(strings.TrimSpace(f.Month))
}

// ParseColumnFilters decodes a URL-encoded JSON object mapping column name to
// either a plain string term or a {value, regex} object. Entries with empty
// values are dropped. A malformed payload yields an error; callers decide
// whether to surface it or degrade to "no per-column filters".
func ParseColumnFilters(encoded string) (map[string]SearchTerm, error) {
	if encoded == "" || encoded == "{}" {
		return nil, nil
	}

	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(decoded), &raw); err != nil {
		return nil, err
	}

	terms := make(map[string]SearchTerm, len(raw))
	for col, msg := range raw {
		term, ok := decodeTerm(msg)
		if !ok || term.Value == "" {
			continue
		}
		terms[col] = term
	}
	return terms, nil
}

// decodeTerm accepts both wire shapes: "foo" and {"value":"foo","regex":true}
func decodeTerm(msg json.RawMessage) (SearchTerm, bool) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return SearchTerm{Value: s}, true
	}

	var t SearchTerm
	if err := json.Unmarshal(msg, &t); err == nil {
		return t, true
	}
	return SearchTerm{}, false
}
