package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const bareDateSuffix = "T12:00:00Z"

var bareDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// tokens treated as an empty cell, matching common spreadsheet exports
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-NaN":     {},
	"-nan":     {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell carries no value.
func IsMissing(raw string) bool {
	_, ok := missingTokens[strings.TrimSpace(raw)]
	return ok
}

// ToList splits a comma separated cell into trimmed non-empty tokens. A cell
// holding a JSON array is decoded instead. Missing cells give an empty list.
func ToList(raw string) []string {
	list, _ := toList(raw)
	return list
}

// toList also reports whether the cell looked like a JSON array but failed to
// decode and was split on commas instead.
func toList(raw string) (list []string, fellBack bool) {
	if IsMissing(raw) {
		return []string{}, false
	}
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if parsed, ok := decodeJSONList(s); ok {
			return parsed, false
		}
		fellBack = true
	}
	return splitTrim(s, ","), fellBack
}

// ToPipeList splits a pipe delimited cell into trimmed non-empty tokens.
func ToPipeList(raw string) []string {
	if IsMissing(raw) {
		return []string{}
	}
	return splitTrim(raw, "|")
}

func splitTrim(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func decodeJSONList(s string) ([]string, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		case bool:
			out = append(out, strconv.FormatBool(v))
		default:
			var buf bytes.Buffer
			if err := json.NewEncoder(&buf).Encode(v); err != nil {
				return nil, false
			}
			out = append(out, strings.TrimSpace(buf.String()))
		}
	}
	return out, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ToISO normalizes a date cell. A bare calendar date gets a fixed noon UTC
// time, anything else passes through. The second return is false when the
// passed-through value does not parse as a timestamp.
func ToISO(raw string) (any, bool) {
	if IsMissing(raw) {
		return nil, true
	}
	s := strings.TrimSpace(raw)
	if bareDate.MatchString(s) {
		return s + bareDateSuffix, true
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s, true
		}
	}
	return s, false
}

// ToNumber parses a numeric cell. Integral values stay integers.
func ToNumber(raw string) (any, error) {
	if IsMissing(raw) {
		return nil, nil
	}
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, ok := parseFloat(s)
	if !ok {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// ToLogID accepts integer text, including float text with no fraction such
// as "12.0".
func ToLogID(raw string) (int64, error) {
	if IsMissing(raw) {
		return 0, fmt.Errorf("missing")
	}
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, ok := parseFloat(s)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return int64(f), nil
}

// ToText trims a cell and maps missing values to nil.
func ToText(raw string) any {
	if IsMissing(raw) {
		return nil
	}
	return strings.TrimSpace(raw)
}

type columnKind int

const (
	kindText columnKind = iota
	kindInt
	kindFloat
	kindBool
)

// inferColumn picks the narrowest type every present value of a column fits.
func inferColumn(values []string) columnKind {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		seen = true
		s := strings.TrimSpace(raw)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(s); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return kindText
		}
	}
	switch {
	case !seen:
		return kindText
	case isInt:
		return kindInt
	case isFloat:
		return kindFloat
	case isBool:
		return kindBool
	}
	return kindText
}

// parseFloat rejects NaN and infinities, which have no JSON form.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func convertCell(raw string, kind columnKind) any {
	if IsMissing(raw) {
		return nil
	}
	s := strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		i, _ := strconv.ParseInt(s, 10, 64)
		return i
	case kindFloat:
		f, _ := parseFloat(s)
		return f
	case kindBool:
		b, _ := parseBool(s)
		return b
	}
	return raw
}
