package format

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"apilog-cli/internal/model"
)

const jsonIndent = "  "

// PrettyJSON re-encodes raw JSON text with two-space indentation. Object
// keys keep their order; numbers and string escapes come out normalised
// (1.0 as 1, \u00e9 as é). ok is false when raw is not valid JSON.
func PrettyJSON(raw string) (string, bool) {
	if !gjson.Valid(raw) {
		return "", false
	}
	var buf bytes.Buffer
	if err := writeValue(&buf, json.NewDecoder(strings.NewReader(raw)), 0); err != nil {
		return "", false
	}
	return buf.String(), true
}

func writeValue(buf *bytes.Buffer, dec *json.Decoder, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		closing := byte('}')
		if v == '[' {
			closing = ']'
		}
		buf.WriteByte(byte(v))
		n := 0
		for dec.More() {
			if n > 0 {
				buf.WriteByte(',')
			}
			n++
			newline(buf, depth+1)
			if v == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeScalar(buf, key); err != nil {
					return err
				}
				buf.WriteString(": ")
			}
			if err := writeValue(buf, dec, depth+1); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		if n > 0 {
			newline(buf, depth)
		}
		buf.WriteByte(closing)
		return nil
	default:
		return writeScalar(buf, tok)
	}
}

// writeScalar encodes a string, number, boolean or null without HTML
// escaping. Numbers use their shortest form.
func writeScalar(buf *bytes.Buffer, v any) error {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(b.Bytes(), "\n"))
	return nil
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(jsonIndent, depth))
}

// JSONOrText pretty-prints raw when it parses as JSON and returns it
// unchanged otherwise.
func JSONOrText(raw string) string {
	if out, ok := PrettyJSON(raw); ok {
		return out
	}
	return raw
}

// MinifyJSON strips insignificant whitespace from valid JSON; other text is
// returned unchanged.
func MinifyJSON(raw string) string {
	if !gjson.Valid(raw) {
		return raw
	}
	return string(pretty.Ugly([]byte(raw)))
}

// FieldsJSON renders a string mapping as indented JSON with sorted keys.
func FieldsJSON(f model.Fields) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(map[string]string(f)); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}
