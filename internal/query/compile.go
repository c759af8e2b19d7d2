package query

import (
	"net/url"
	"strconv"
	"strings"
)

// DateField identifies the reserved metadata field the upstream uses for
// modification-date bounds, and the clause symbols for each bound.
type DateField struct {
	ID         int64
	FromClause TextClause
	ToClause   TextClause
}

// DefaultDateField is the upstream's built-in "modified" field.
var DefaultDateField = DateField{ID: 19, FromClause: ModifiedFrom, ToClause: ModifiedTo}

// Params is the complete parameter set of an upstream quick-filter search.
// Every field is always sent, empty when unused.
type Params struct {
	FolderID          int64
	From              int
	Count             string
	Filename          string
	Extensions        string
	Description       string
	IncludeFolders    string
	ShowPath          string
	Tags              string
	OrderBy           string
	IncludeSubfolders string
	IncludeVersions   string
	SharingStatus     string
	Type              SearchType
	MetaClause        string
	Metadata          string
	TextOption        string

	// Criteria holds the individual encodings joined into Metadata.
	Criteria []string
}

// Values renders the parameters in the upstream's wire names.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("fi_pid", strconv.FormatInt(p.FolderID, 10))
	v.Set("from", strconv.Itoa(p.From))
	v.Set("count", p.Count)
	v.Set("fi_name", p.Filename)
	v.Set("fi_extension", p.Extensions)
	v.Set("fi_description", p.Description)
	for _, passthrough := range []string{"fi_public", "fi_provider", "fi_encrypted", "fi_structtype", "fi_favorite"} {
		v.Set(passthrough, "")
	}
	v.Set("includefolders", p.IncludeFolders)
	v.Set("showpath", p.ShowPath)
	v.Set("fi_tags", p.Tags)
	v.Set("orderby", p.OrderBy)
	v.Set("includesubfolders", p.IncludeSubfolders)
	v.Set("includeversions", p.IncludeVersions)
	v.Set("sharingstatus", p.SharingStatus)
	v.Set("options", "")
	v.Set("type", string(p.Type))
	// Date filtering goes through the metadata channel.
	v.Set("fromdate", "")
	v.Set("todate", "")
	v.Set("dateclause", "")
	v.Set("metaclause", p.MetaClause)
	v.Set("metadata", p.Metadata)
	v.Set("textoption", p.TextOption)
	return v
}

// Compiler turns validated filters into upstream search parameters.
type Compiler struct {
	dateField DateField
}

// NewCompiler returns a Compiler that encodes date bounds on dateField.
func NewCompiler(dateField DateField) *Compiler {
	if dateField.ID == 0 {
		dateField.ID = DefaultDateField.ID
	}
	if dateField.FromClause == "" {
		dateField.FromClause = DefaultDateField.FromClause
	}
	if dateField.ToClause == "" {
		dateField.ToClause = DefaultDateField.ToClause
	}
	return &Compiler{dateField: dateField}
}

// Compile builds the parameter set for f. f is expected to have passed Validate.
func (c *Compiler) Compile(f Filter) Params {
	searchType := f.SearchType()

	var folderID int64
	if f.FolderID != nil {
		folderID = *f.FolderID
	}

	p := Params{
		FolderID:          folderID,
		Count:             "",
		IncludeFolders:    yesNo(searchType == TypeAllMatches),
		ShowPath:          "n",
		OrderBy:           "fi_name",
		IncludeSubfolders: "y",
		IncludeVersions:   "n",
		SharingStatus:     "n",
		Type:              searchType,
	}

	if f.hasFilename() {
		p.Filename = f.Filename
	}
	if f.hasDescription() {
		p.Description = f.Description
	}
	if f.hasExtensions() {
		p.Extensions = strings.Join(f.Extensions, ",")
	}
	if f.hasTags() {
		p.Tags = strings.Join(f.Tags, ",")
	}

	p.Criteria = c.criteria(f)
	p.Metadata = strings.Join(p.Criteria, ";")
	if f.hasMetadata() || f.hasFromDate() || f.hasToDate() {
		p.MetaClause = string(DecodeCombination(f.MetaClause))
	}

	if f.TextOption != nil && f.textOptionAllowed() {
		p.TextOption = joinTextOptions(f.TextOption)
	}

	return p
}

// criteria encodes the date bounds first, then every explicit condition, in order.
func (c *Compiler) criteria(f Filter) []string {
	var out []string
	if f.hasFromDate() {
		out = append(out, Criterion{
			FieldID:     c.dateField.ID,
			Clause:      c.dateField.FromClause,
			Value:       f.FromDate.String(),
			Combination: And,
		}.Encode())
	}
	if f.hasToDate() {
		out = append(out, Criterion{
			FieldID:     c.dateField.ID,
			Clause:      c.dateField.ToClause,
			Value:       f.ToDate.String(),
			Combination: And,
		}.Encode())
	}
	for _, cond := range f.Metadata {
		out = append(out, cond.Criterion().Encode())
	}
	return out
}

// joinTextOptions drops unknown mode tokens and joins the rest with ';'.
func joinTextOptions(opts []string) string {
	var kept []string
	for _, o := range opts {
		if opt, ok := textOptions[o]; ok {
			kept = append(kept, string(opt))
		}
	}
	return strings.Join(kept, ";")
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
