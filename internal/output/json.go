package output

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/dl/godents/internal/dirent"
)

// jsonEntry is the JSON serialization format for an entry.
type jsonEntry struct {
	Inode uint64   `json:"inode"`
	Type  string   `json:"type"`
	Name  jsonName `json:"name"`
}

// jsonName is a file name as JSON. Names are bytes, not text: each byte that
// is not part of valid UTF-8 is written as the lone surrogate \udcXX, so
// distinct names never encode alike and the original bytes can be recovered.
type jsonName string

const hexDigits = "0123456789abcdef"

func (n jsonName) MarshalJSON() ([]byte, error) {
	s := string(n)
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				buf = append(buf, '\\', c)
			case '\n':
				buf = append(buf, `\n`...)
			case '\r':
				buf = append(buf, `\r`...)
			case '\t':
				buf = append(buf, `\t`...)
			default:
				if c < 0x20 || c == 0x7f {
					buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				} else {
					buf = append(buf, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, '\\', 'u', 'd', 'c', hexDigits[c>>4], hexDigits[c&0xf])
			i++
			continue
		}
		buf = append(buf, s[i:i+size]...)
		i += size
	}
	return append(buf, '"'), nil
}

// jsonEncoder encodes entries without HTML escaping, which would rewrite
// '<', '>' and '&' in names.
type jsonEncoder struct {
	out bytes.Buffer
	enc *json.Encoder
}

// appendEntry encodes e onto buf without a trailing newline. Writes into a
// bytes.Buffer cannot fail and every field marshals.
func (je *jsonEncoder) appendEntry(buf []byte, e dirent.Entry) []byte {
	if je.enc == nil {
		je.enc = json.NewEncoder(&je.out)
		je.enc.SetEscapeHTML(false)
	}
	je.out.Reset()
	je.enc.Encode(jsonEntry{Inode: e.Ino, Type: e.Type.String(), Name: jsonName(e.Name)})
	return append(buf, bytes.TrimSuffix(je.out.Bytes(), []byte{'\n'})...)
}

// JSONFormatter writes a single JSON array, one object per line.
type JSONFormatter struct {
	enc jsonEncoder
}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Begin(buf []byte) []byte {
	return append(buf, "[\n"...)
}

func (f *JSONFormatter) Format(buf []byte, e dirent.Entry, i int) []byte {
	if i > 0 {
		buf = append(buf, ",\n"...)
	}
	return f.enc.appendEntry(buf, e)
}

func (f *JSONFormatter) End(buf []byte) []byte {
	return append(buf, "\n]\n"...)
}

// JSONStreamFormatter writes JSON Lines (one object per entry).
type JSONStreamFormatter struct {
	enc jsonEncoder
}

// NewJSONStreamFormatter creates a JSONStreamFormatter.
func NewJSONStreamFormatter() *JSONStreamFormatter {
	return &JSONStreamFormatter{}
}

func (f *JSONStreamFormatter) Begin(buf []byte) []byte { return buf }
func (f *JSONStreamFormatter) End(buf []byte) []byte   { return buf }

func (f *JSONStreamFormatter) Format(buf []byte, e dirent.Entry, _ int) []byte {
	buf = f.enc.appendEntry(buf, e)
	return append(buf, '\n')
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONStreamFormatter)(nil)
)
