package query

import (
	"bytes"
	"encoding/json"
	"strings"
)

type codeKind uint8

const (
	codeUnrecognized codeKind = iota
	codeNumber
	codeWord
)

// Code is a request value that clients send either as a legacy numeric code
// or as a word. It never fails to unmarshal: values of any other JSON type are
// kept as unrecognized and decode to the field's default.
type Code struct {
	kind codeKind
	num  int64
	word string
}

// Num returns a numeric Code.
func Num(n int64) *Code { return &Code{kind: codeNumber, num: n} }

// Word returns a word Code. Words are compared case-insensitively.
func Word(s string) *Code { return &Code{kind: codeWord, word: strings.ToLower(strings.TrimSpace(s))} }

func (c *Code) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*c = Code{}
		return nil
	}

	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			*c = *Num(n)
			return nil
		}
	case string:
		*c = *Word(t)
		return nil
	}
	*c = Code{}
	return nil
}

func (c Code) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case codeNumber:
		return json.Marshal(c.num)
	case codeWord:
		return json.Marshal(c.word)
	}
	return []byte("null"), nil
}

// String renders the raw value for logs.
func (c *Code) String() string {
	if c == nil {
		return "<unset>"
	}
	b, _ := c.MarshalJSON()
	return string(b)
}

// decode resolves c through a legacy numeric table and a word table. Unset or
// unrecognized input yields def.
func decode[T any](c *Code, numbers map[int64]T, words map[string]T, def T) T {
	if c == nil {
		return def
	}
	switch c.kind {
	case codeNumber:
		if v, ok := numbers[c.num]; ok {
			return v
		}
	case codeWord:
		if v, ok := words[c.word]; ok {
			return v
		}
	}
	return def
}
