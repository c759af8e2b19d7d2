package query

import (
	"fmt"
	"strconv"
	"strings"
)

// TextClause is the comparison mode of a metadata condition.
type TextClause string

const (
	Equals   TextClause = "x"
	Contains TextClause = "c"

	// ModifiedFrom and ModifiedTo are only produced for synthesized date
	// bounds; request input never decodes to them.
	ModifiedFrom TextClause = "m"
	ModifiedTo   TextClause = "l"
)

// Combination joins a condition to the rest of the metadata query.
type Combination string

const (
	And Combination = "and"
	Or  Combination = "or"
)

var (
	textClauseCodes = map[int64]TextClause{1: Contains}
	textClauseWords = map[string]TextClause{
		"x":        Equals,
		"c":        Contains,
		"equals":   Equals,
		"contains": Contains,
	}

	combinationCodes = map[int64]Combination{2: Or}
	combinationWords = map[string]Combination{
		"and": And,
		"or":  Or,
	}
)

// DecodeTextClause normalizes a loosely-typed text clause. Numeric 1 means
// contains; every other number and any unrecognized word means equals.
func DecodeTextClause(c *Code) TextClause {
	return decode(c, textClauseCodes, textClauseWords, Equals)
}

// DecodeCombination normalizes a loosely-typed combination clause. Numeric 2
// means or; everything else that is not the word "or" means and.
func DecodeCombination(c *Code) Combination {
	return decode(c, combinationCodes, combinationWords, And)
}

// Criterion is one encoded term of the upstream metadata query language.
type Criterion struct {
	FieldID     int64
	Clause      TextClause
	Value       string
	Combination Combination
}

// Encode renders "<fieldId>,<textClause>,<value>,<combination>".
func (c Criterion) Encode() string {
	return fmt.Sprintf("%d,%s,%s,%s", c.FieldID, c.Clause, c.Value, c.Combination)
}

// ParseCriterion splits an encoded criterion back into its parts. The value
// may itself contain commas; the field id and clause are taken from the left
// and the combination from the right.
func ParseCriterion(s string) (Criterion, error) {
	first := strings.Index(s, ",")
	if first < 0 {
		return Criterion{}, fmt.Errorf("criterion %q: missing field id separator", s)
	}
	rest := s[first+1:]
	second := strings.Index(rest, ",")
	last := strings.LastIndex(rest, ",")
	if second < 0 || last == second {
		return Criterion{}, fmt.Errorf("criterion %q: expected four parts", s)
	}

	id, err := strconv.ParseInt(s[:first], 10, 64)
	if err != nil {
		return Criterion{}, fmt.Errorf("criterion %q: field id: %w", s, err)
	}

	return Criterion{
		FieldID:     id,
		Clause:      TextClause(rest[:second]),
		Value:       rest[second+1 : last],
		Combination: Combination(rest[last+1:]),
	}, nil
}
