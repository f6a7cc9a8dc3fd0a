package parse

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"
)

const (
	// PreviewLen is the number of characters kept in a record preview.
	PreviewLen    = 150
	// PreviewMarker is appended to a preview when the text was cut.
	PreviewMarker = "..."

	discriminatorField = "commandType"
	textField          = "text"
)

// codeRoles maps the numeric commandType values of the export format.
var codeRoles = map[int64]Role{
	3: User,
	4: Assistant,
}

var nameRoles = map[string]Role{
	"user":      User,
	"assistant": Assistant,
}

// RoleForCode maps a numeric discriminator.
func RoleForCode(code int64) Role {
	if r, ok := codeRoles[code]; ok {
		return r
	}
	return Unknown("type_" + strconv.FormatInt(code, 10))
}

// RoleForName maps a string discriminator.
func RoleForName(name string) Role {
	if r, ok := nameRoles[name]; ok {
		return r
	}
	return Unknown(name)
}

// ClassifyRole decodes a raw commandType value. A missing or null value
// becomes Unknown("type_none"); values that are neither integers nor strings
// keep their JSON literal in the tag.
func ClassifyRole(raw json.RawMessage) Role {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return Unknown("type_none")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return RoleForName(s)
		}
		return Unknown("type_" + string(raw))
	}

	lit := string(raw)
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return RoleForCode(n)
	}
	// 4.0 and 4 are the same code
	if f, err := strconv.ParseFloat(lit, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return RoleForCode(int64(f))
	}
	return Unknown("type_" + lit)
}

// Preview returns the first PreviewLen characters of text, with
// PreviewMarker appended when text is longer.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLen {
		return text
	}
	n := 0
	for i := range text {
		if n == PreviewLen {
			return text[:i] + PreviewMarker
		}
		n++
	}
	return text
}

// recordText returns the message text, or false when the record has none.
func recordText(rec RawRecord) (string, bool) {
	raw := bytes.TrimSpace(rec[textField])
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Classify turns raw records into classified ones in input order. Records
// without text are dropped; Index keeps the original position, so skipped
// records leave gaps.
func Classify(raw []RawRecord) Classification {
	c := Classification{
		Records:  make([]ClassifiedRecord, 0, len(raw)),
		TotalRaw: len(raw),
	}

	for i, rec := range raw {
		text, ok := recordText(rec)
		if !ok {
			continue
		}

		role := ClassifyRole(rec[discriminatorField])
		switch role.Kind {
		case RoleUser:
			c.UserCount++
		case RoleAssistant:
			c.AssistantCount++
		default:
			c.UnknownCount++
		}

		c.Records = append(c.Records, ClassifiedRecord{
			Index:   i,
			Role:    role,
			Text:    text,
			Length:  utf8.RuneCountInString(text),
			Preview: Preview(text),
		})
	}
	return c
}

// LongRecords returns up to limit records whose length exceeds minLength,
// in index order.
func LongRecords(records []ClassifiedRecord, minLength, limit int) []ClassifiedRecord {
	var out []ClassifiedRecord
	for _, r := range records {
		if len(out) >= limit {
			break
		}
		if r.Length > minLength {
			out = append(out, r)
		}
	}
	return out
}
