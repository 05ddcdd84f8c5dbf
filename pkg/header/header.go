// Package header extracts the delimited metadata block from the front of a
// recipe document. The accepted grammar is a restricted key/value subset:
// scalars with boolean/number coercion, inline bracket lists, and nested
// block lists absorbed while their indentation exceeds the owning key's.
// It is intentionally not a general YAML parser; the grammar is frozen so
// that stored documents keep parsing the same way.
package header

import (
	"regexp"
	"strconv"
	"strings"
)

// Delimiter opens and closes the header block.
const Delimiter = "---"

// Kind discriminates the value types a header field can hold.
type Kind int

const (
	KindText Kind = iota
	KindList
	KindBool
	KindNumber
)

// Value is one parsed header field.
type Value struct {
	Kind   Kind
	Text   string
	List   []string
	Bool   bool
	Number float64
}

// AsText flattens a value to display text. Lists have no scalar form and
// yield the empty string.
func (v Value) AsText() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// AsList flattens a value to a list: list values as-is, non-empty scalars as
// a single-element list.
func (v Value) AsList() []string {
	if v.Kind == KindList {
		return v.List
	}
	if text := v.AsText(); text != "" {
		return []string{text}
	}
	return nil
}

// Header is the ordered key/value mapping parsed from a document's metadata
// block. Unrecognized keys are preserved; consumers ignore what they do not
// understand.
type Header struct {
	keys   []string
	values map[string]Value
}

// Keys returns the field names in document order.
func (h *Header) Keys() []string {
	return h.keys
}

// Get returns the raw value for a key.
func (h *Header) Get(key string) (Value, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Text returns the scalar form of a field, or "" when absent.
func (h *Header) Text(key string) string {
	v, ok := h.values[key]
	if !ok {
		return ""
	}
	return v.AsText()
}

// List returns the list form of a field, coercing scalars to a
// single-element list. Absent fields yield nil.
func (h *Header) List(key string) []string {
	v, ok := h.values[key]
	if !ok {
		return nil
	}
	return v.AsList()
}

func (h *Header) set(key string, value Value) {
	if _, exists := h.values[key]; !exists {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

var listItemPattern = regexp.MustCompile(`^(\s*)-\s+(.*)$`)

// Parse splits a document into its metadata header and body. When the first
// line is not the delimiter, or the block never closes, the header is nil
// and the body is the document unchanged.
func Parse(document string) (*Header, string) {
	lines := strings.Split(document, "\n")
	if len(lines) == 0 || strings.TrimSpace(strings.TrimSuffix(lines[0], "\r")) != Delimiter {
		return nil, document
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(strings.TrimSuffix(lines[i], "\r")) == Delimiter {
			closing = i
			break
		}
	}
	if closing == -1 {
		// Unclosed block: treat the document as having no header at all.
		return nil, document
	}

	h := &Header{values: map[string]Value{}}
	parseFields(h, lines[1:closing])

	return h, strings.Join(lines[closing+1:], "\n")
}

// parseFields walks the header lines top to bottom carrying one piece of
// state: the active block-list key and its indentation.
func parseFields(h *Header, lines []string) {
	activeKey := ""
	activeIndent := 0

	for _, rawLine := range lines {
		rawLine = strings.TrimSuffix(rawLine, "\r")
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := listItemPattern.FindStringSubmatch(rawLine); activeKey != "" && m != nil {
			indent := len(m[1])
			if indent > activeIndent {
				item := unquote(strings.TrimSpace(m[2]))
				existing := h.values[activeKey]
				if item != "" {
					existing.List = append(existing.List, item)
				}
				existing.Kind = KindList
				h.set(activeKey, existing)
				continue
			}
			// A dedent ends the list; the line is re-read as key: value.
			activeKey = ""
		}

		colon := strings.Index(rawLine, ":")
		if colon == -1 {
			activeKey = ""
			continue
		}
		key := strings.TrimSpace(rawLine[:colon])
		value := strings.TrimSpace(rawLine[colon+1:])

		if value == "" {
			activeKey = key
			activeIndent = len(rawLine) - len(strings.TrimLeft(rawLine, " \t"))
			if _, exists := h.values[key]; !exists {
				h.set(key, Value{Kind: KindList})
			}
			continue
		}

		activeKey = ""
		h.set(key, parseScalar(value))
	}
}

// parseScalar coerces a raw value: inline bracket list, boolean, number,
// then quoted or bare text.
func parseScalar(value string) Value {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		var items []string
		for _, part := range strings.Split(value[1:len(value)-1], ",") {
			item := unquote(strings.TrimSpace(part))
			if item != "" {
				items = append(items, item)
			}
		}
		return Value{Kind: KindList, List: items}
	}

	if value == "true" || value == "false" {
		return Value{Kind: KindBool, Bool: value == "true"}
	}

	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return Value{Kind: KindNumber, Number: n}
	}

	return Value{Kind: KindText, Text: unquote(value)}
}

// unquote strips one layer of matching surrounding quotes.
func unquote(value string) string {
	if len(value) >= 2 {
		if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
			(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
			return value[1 : len(value)-1]
		}
	}
	return value
}
