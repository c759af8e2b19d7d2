package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SearchType is the upstream search mode symbol.
type SearchType string

const (
	TypeAllMatches        SearchType = "v"
	TypeAnyMatch          SearchType = "a"
	TypeSharesOnly        SearchType = "o"
	TypeSharedDescendants SearchType = "s"
	TypeVersions          SearchType = "d"

	TypeDefault = TypeAllMatches
)

const dateLayout = "2006-01-02"

// searchTypes lists every symbol the upstream accepts.
var searchTypes = map[string]SearchType{
	"v": TypeAllMatches,
	"a": TypeAnyMatch,
	"o": TypeSharesOnly,
	"h": "h",
	"s": TypeSharedDescendants,
	"d": TypeVersions,
	"e": "e",
	"x": "x",
	"c": "c",
	"n": "n",
}

// legacySearchTypes maps the numeric codes older clients send.
var legacySearchTypes = map[int64]SearchType{
	1: TypeAnyMatch,
	2: TypeSharesOnly,
	4: TypeSharedDescendants,
	5: TypeVersions,
}

// textOptionTypes are the search types that accept a text-match mode list.
var textOptionTypes = map[SearchType]bool{
	TypeAllMatches: true,
	"h":            true,
}

// TextOption is a filename text-match mode.
type TextOption string

const (
	TextExact          TextOption = "x"
	TextWhole          TextOption = "wh"
	TextBeginsWith     TextOption = "bw"
	TextEndsWith       TextOption = "ew"
	TextWordBoundaries TextOption = "wx"
)

var textOptions = map[string]TextOption{
	"x":  TextExact,
	"wh": TextWhole,
	"bw": TextBeginsWith,
	"ew": TextEndsWith,
	"wx": TextWordBoundaries,
}

// DecodeSearchType resolves the requested search type. Unknown numbers and
// unknown words fall back to all-matches.
func DecodeSearchType(c *Code) SearchType {
	return decode(c, legacySearchTypes, searchTypes, TypeDefault)
}

// AllowsTextOption reports whether t accepts a TextOption list.
func (t SearchType) AllowsTextOption() bool { return textOptionTypes[t] }

// Date is a calendar date sent as YYYY-MM-DD or RFC 3339. An empty string
// leaves the zero Date, which counts as unset.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return Date{t}, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format(dateLayout) }

// Condition is one client-supplied metadata filter term.
type Condition struct {
	ID           int64  `json:"Id"`
	TextClause   *Code  `json:"TextClause,omitempty"`
	Criteria     string `json:"Criteria"`
	SearchClause *Code  `json:"SearchClause,omitempty"`
}

// Criterion normalizes the condition's clauses.
func (c Condition) Criterion() Criterion {
	return Criterion{
		FieldID:     c.ID,
		Clause:      DecodeTextClause(c.TextClause),
		Value:       c.Criteria,
		Combination: DecodeCombination(c.SearchClause),
	}
}

// Filter is the structured search filter a client submits. Pointer fields
// distinguish "absent" from a zero value.
type Filter struct {
	FolderID    *int64      `json:"FolderId,omitempty"`
	Type        *Code       `json:"Type,omitempty"`
	Filename    string      `json:"Filename,omitempty"`
	Description string      `json:"Description,omitempty"`
	Extensions  []string    `json:"Extensions,omitempty"`
	Tags        []string    `json:"Tags,omitempty"`
	Metadata    []Condition `json:"Metadata,omitempty"`
	MetaClause  *Code       `json:"MetaClause,omitempty"`
	FromDate    *Date       `json:"FromDate,omitempty"`
	ToDate      *Date       `json:"ToDate,omitempty"`
	TextOption  []string    `json:"TextOption,omitempty"`
}

// Folder returns a pointer to id, for building filters in code.
func Folder(id int64) *int64 { return &id }

func (f Filter) hasFilename() bool    { return strings.TrimSpace(f.Filename) != "" }
func (f Filter) hasDescription() bool { return strings.TrimSpace(f.Description) != "" }
func (f Filter) hasExtensions() bool  { return len(f.Extensions) > 0 }
func (f Filter) hasTags() bool        { return len(f.Tags) > 0 }
func (f Filter) hasMetadata() bool    { return len(f.Metadata) > 0 }
func (f Filter) hasFromDate() bool    { return f.FromDate != nil && !f.FromDate.IsZero() }
func (f Filter) hasToDate() bool      { return f.ToDate != nil && !f.ToDate.IsZero() }

// hasCriteria reports whether at least one search criterion is active.
func (f Filter) hasCriteria() bool {
	return f.hasFilename() || f.hasDescription() || f.hasExtensions() || f.hasTags() ||
		f.hasMetadata() || f.hasFromDate() || f.hasToDate()
}

// SearchType resolves the filter's search type.
func (f Filter) SearchType() SearchType { return DecodeSearchType(f.Type) }

// textOptionAllowed reports whether Type was sent as a word naming a type that
// accepts a TextOption list. Numeric and unrecognized types never qualify, even
// when they resolve to one that would.
func (f Filter) textOptionAllowed() bool {
	return f.Type != nil && f.Type.kind == codeWord && SearchType(f.Type.word).AllowsTextOption()
}

// Summary describes the active criteria without their values, for logs and history.
func (f Filter) Summary() string {
	var parts []string
	if f.hasFilename() {
		parts = append(parts, "filename")
	}
	if f.hasDescription() {
		parts = append(parts, "description")
	}
	if f.hasExtensions() {
		parts = append(parts, fmt.Sprintf("extensions(%d)", len(f.Extensions)))
	}
	if f.hasTags() {
		parts = append(parts, fmt.Sprintf("tags(%d)", len(f.Tags)))
	}
	if f.hasMetadata() {
		parts = append(parts, fmt.Sprintf("metadata(%d)", len(f.Metadata)))
	}
	if f.hasFromDate() {
		parts = append(parts, "from:"+f.FromDate.String())
	}
	if f.hasToDate() {
		parts = append(parts, "to:"+f.ToDate.String())
	}
	return strings.Join(parts, " ")
}
