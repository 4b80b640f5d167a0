// Package charset is the text encoding policy for string arguments.
//
// A string argument is written as the address of a secondary allocation
// holding the encoded text followed by one NUL code unit. The default policy
// is UTF-8 (narrow char*). UTF16 and UTF32 match wchar_t on Windows and on
// Linux/macOS respectively; their byte order follows the target platform.
// Legacy narrow charsets are resolved by IANA name.
package charset

import (
	"encoding/binary"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/wippyai/varargs/errors"
)

type form uint8

const (
	formNarrow form = iota
	formUTF8
	formUTF16
	formUTF32
)

// Encoding is a string encoding policy. The zero value is not usable;
// see IsZero.
type Encoding struct {
	enc encoding.Encoding
	// order pins the byte order of a wide encoding; nil follows the platform.
	order binary.ByteOrder
	name  string
	unit  uint32
	form  form
}

var (
	UTF8  = Encoding{name: "UTF-8", unit: 1, form: formUTF8}
	UTF16 = Encoding{name: "UTF-16", unit: 2, form: formUTF16}
	UTF32 = Encoding{name: "UTF-32", unit: 4, form: formUTF32}
)

// Wide returns the encoding of the host's wchar_t.
func Wide() Encoding {
	if runtime.GOOS == "windows" {
		return UTF16
	}
	return UTF32
}

// Lookup resolves an encoding by name: "utf-8", "utf-16", "utf-32", "wide",
// or any IANA charset name known to golang.org/x/text. The endian-qualified
// UTF-16 and UTF-32 names keep their byte order on every platform. Other
// charsets must use one-byte code units.
func Lookup(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "narrow":
		return UTF8, nil
	case "utf-16", "utf16":
		return UTF16, nil
	case "utf-32", "utf32":
		return UTF32, nil
	case "wide", "wchar_t":
		return Wide(), nil
	}
	if e, ok := unicodeByName(name); ok {
		return e, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return Encoding{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(name).
			Cause(err).
			Detail("unknown encoding %q", name).
			Build()
	}
	if enc == nil {
		return Encoding{}, errors.Unsupported(errors.PhaseConfig, "encoding "+name)
	}

	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil || canonical == "" {
		canonical = name
	}
	if e, ok := unicodeByName(canonical); ok {
		return e, nil
	}

	// The terminator is one NUL byte, so every code unit must be one byte.
	if unit, err := enc.NewEncoder().Bytes([]byte("A")); err != nil || len(unit) != 1 {
		return Encoding{}, errors.Unsupported(errors.PhaseConfig, "multi-byte code units of encoding "+canonical)
	}
	return Encoding{enc: enc, name: canonical, unit: 1, form: formNarrow}, nil
}

// unicodeByName maps the IANA names of the Unicode transformation formats
// onto the built-in forms.
func unicodeByName(name string) (Encoding, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTF-8":
		return UTF8, true
	case "UTF-16":
		return UTF16, true
	case "UTF-16BE":
		return Encoding{name: "UTF-16BE", unit: 2, form: formUTF16, order: binary.BigEndian}, true
	case "UTF-16LE":
		return Encoding{name: "UTF-16LE", unit: 2, form: formUTF16, order: binary.LittleEndian}, true
	case "UTF-32":
		return UTF32, true
	case "UTF-32BE":
		return Encoding{name: "UTF-32BE", unit: 4, form: formUTF32, order: binary.BigEndian}, true
	case "UTF-32LE":
		return Encoding{name: "UTF-32LE", unit: 4, form: formUTF32, order: binary.LittleEndian}, true
	}
	return Encoding{}, false
}

// Name returns the canonical encoding name.
func (e Encoding) Name() string { return e.name }

// UnitSize is the width of one code unit, and of the terminator.
func (e Encoding) UnitSize() uint32 { return e.unit }

// IsZero reports whether e is the zero Encoding.
func (e Encoding) IsZero() bool { return e.unit == 0 }

// IsWide reports whether e uses multi-byte code units.
func (e Encoding) IsWide() bool { return e.unit > 1 }

func (e Encoding) String() string { return e.name }

// Encode returns s encoded and NUL-terminated. Wide encodings use order
// unless their name pins a byte order.
func (e Encoding) Encode(s string, order binary.ByteOrder) ([]byte, error) {
	if e.IsZero() {
		return nil, errors.InvalidInput(errors.PhaseWrite, "zero encoding")
	}
	if !utf8.ValidString(s) {
		return nil, errors.InvalidUTF8(errors.PhaseWrite, nil, []byte(s))
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errors.InvalidData(errors.PhaseWrite, nil, "text contains an embedded NUL")
	}

	var body []byte
	switch e.form {
	case formUTF8:
		body = []byte(s)
	default:
		enc, err := e.transcoder(order)
		if err != nil {
			return nil, err
		}
		body, err = enc.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, errors.New(errors.PhaseWrite, errors.KindInvalidData).
				Cause(err).
				Detail("text not representable in %s", e.name).
				Build()
		}
	}

	out := make([]byte, len(body)+int(e.unit))
	copy(out, body)
	return out, nil
}

// Decode converts encoded text without its terminator back to a Go string.
func (e Encoding) Decode(b []byte, order binary.ByteOrder) (string, error) {
	if e.IsZero() {
		return "", errors.InvalidInput(errors.PhaseDecode, "zero encoding")
	}
	if e.form == formUTF8 {
		if !utf8.Valid(b) {
			return "", errors.InvalidUTF8(errors.PhaseDecode, nil, b)
		}
		return string(b), nil
	}
	enc, err := e.transcoder(order)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decode "+e.name)
	}
	return string(out), nil
}

// IndexTerminator returns the byte offset of the first NUL code unit in b,
// or -1 if b holds none.
func (e Encoding) IndexTerminator(b []byte) int {
	u := int(e.unit)
	if u == 0 {
		return -1
	}
	for i := 0; i+u <= len(b); i += u {
		zero := true
		for _, c := range b[i : i+u] {
			if c != 0 {
				zero = false
				break
			}
		}
		if zero {
			return i
		}
	}
	return -1
}

func (e Encoding) transcoder(order binary.ByteOrder) (encoding.Encoding, error) {
	if e.order != nil {
		order = e.order
	}
	switch e.form {
	case formNarrow:
		return e.enc, nil
	case formUTF16:
		if order == nil {
			return nil, errors.InvalidInput(errors.PhaseWrite, "wide encoding needs a byte order")
		}
		if isBigEndian(order) {
			return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case formUTF32:
		if order == nil {
			return nil, errors.InvalidInput(errors.PhaseWrite, "wide encoding needs a byte order")
		}
		if isBigEndian(order) {
			return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
		}
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	}
	return unicode.UTF8, nil
}

func isBigEndian(order binary.ByteOrder) bool {
	return order.Uint16([]byte{0, 1}) == 1
}
