package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/varargs/vararg"
)

// literal is one command-line argument of the form type:value.
type literal struct {
	t   wit.Type
	raw string
}

// literalTypes is the literal vocabulary in help order. int is a host word
// and decimal a decimal numeral, so both are named aliases over their slot.
var literalTypes = []wit.Type{
	wit.S32{},
	wit.S64{},
	witAlias("int", wit.S64{}),
	wit.F32{},
	wit.F64{},
	witAlias("decimal", wit.F64{}),
	wit.Char{},
	wit.String{},
}

func witAlias(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func lookupType(name string) (wit.Type, bool) {
	for _, t := range literalTypes {
		if witTypeStr(t) == name {
			return t, true
		}
	}
	return nil, false
}

// typeNames lists the vocabulary for help text.
func typeNames() string {
	names := make([]string, len(literalTypes))
	for i, t := range literalTypes {
		names[i] = witTypeStr(t)
	}
	return strings.Join(names, " ")
}

// parseLiteral splits s at the first colon. A value without a known type
// prefix is a string.
func parseLiteral(s string) literal {
	name, raw, ok := strings.Cut(s, ":")
	if !ok {
		return literal{t: wit.String{}, raw: s}
	}
	t, known := lookupType(name)
	if !known {
		return literal{t: wit.String{}, raw: s}
	}
	return literal{t: t, raw: raw}
}

func parseLiterals(args []string) []literal {
	out := make([]literal, len(args))
	for i, a := range args {
		out[i] = parseLiteral(a)
	}
	return out
}

// value converts the literal into the Go value the conversion table expects.
func (l literal) value() (any, error) {
	return convertArg(l.raw, l.t)
}

func convertArg(value string, t wit.Type) (any, error) {
	switch v := t.(type) {
	case wit.String:
		return value, nil
	case wit.S32:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("s32 %q: %w", value, err)
		}
		return int32(n), nil
	case wit.S64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("s64 %q: %w", value, err)
		}
		return n, nil
	case wit.F32:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("f32 %q: %w", value, err)
		}
		return float32(f), nil
	case wit.F64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("f64 %q: %w", value, err)
		}
		return f, nil
	case wit.Char:
		r, n := utf8.DecodeRuneInString(value)
		if n == 0 || n != len(value) || r == utf8.RuneError {
			return nil, fmt.Errorf("char %q must be exactly one character", value)
		}
		return vararg.Rune(r), nil
	case *wit.TypeDef:
		return convertAlias(value, v)
	default:
		return nil, fmt.Errorf("no conversion for %s", witTypeStr(t))
	}
}

func convertAlias(value string, td *wit.TypeDef) (any, error) {
	switch witTypeStr(td) {
	case "int":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int %q: %w", value, err)
		}
		if int64(int(n)) != n {
			return nil, fmt.Errorf("int %q does not fit the host word", value)
		}
		return int(n), nil
	case "decimal":
		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("decimal %q: %w", value, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("no conversion for %s", witTypeStr(td))
}

func literalValues(lits []literal) ([]any, error) {
	vals := make([]any, len(lits))
	for i, l := range lits {
		v, err := l.value()
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func (l literal) String() string { return witTypeStr(l.t) + ":" + l.raw }
