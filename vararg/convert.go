package vararg

import (
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/errors"
)

// Rune marks a value as a character. Plain runes are int32 and convert as
// integers.
type Rune rune

// From converts v into an argument for platform p using the fixed
// conversion table. An *Arg is returned unchanged.
func From(v any, p abi.Platform) (*Arg, error) {
	return convert(v, p, nil)
}

// FromValues converts vals in order. On failure every argument converted so
// far is released and the error carries the failing index as its path.
func FromValues(p abi.Platform, vals ...any) ([]*Arg, error) {
	args := make([]*Arg, 0, len(vals))
	for i, v := range vals {
		a, err := convert(v, p, []string{strconv.Itoa(i)})
		if err != nil {
			for _, done := range args {
				done.Release()
			}
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func convert(v any, p abi.Platform, path []string) (*Arg, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch x := v.(type) {
	case *Arg:
		if x == nil {
			return nil, nilValue(path, "*vararg.Arg")
		}
		return x, nil
	case int32:
		return Int32(x), nil
	case int64:
		return Int64(x), nil
	case int:
		return fromWord(x, p, path)
	case float64:
		return Double(x), nil
	case float32:
		if p.PromoteSingle {
			a := Double(float64(x))
			a.value = x
			return a, nil
		}
		return Single(x), nil
	case decimal.Decimal:
		f, _ := x.Float64()
		return narrowed(f, x), nil
	case *big.Float:
		if x == nil {
			return nil, nilValue(path, "*big.Float")
		}
		f, _ := x.Float64()
		return narrowed(f, x), nil
	case *big.Rat:
		if x == nil {
			return nil, nilValue(path, "*big.Rat")
		}
		f, _ := x.Float64()
		return narrowed(f, x), nil
	case Rune:
		r := rune(x)
		if !utf8.ValidRune(r) {
			return nil, errors.New(errors.PhaseConvert, errors.KindInvalidInput).
				Path(path...).
				GoType("vararg.Rune").
				Value(r).
				Detail("invalid code point U+%04X", r).
				Build()
		}
		a := String(string(r))
		a.value = r
		return a, nil
	case string:
		return String(x), nil
	}

	return nil, errors.UnsupportedType(errors.PhaseConvert, path, abi.TypeName(v))
}

func fromWord(v int, p abi.Platform, path []string) (*Arg, error) {
	if p.PointerSize == 8 {
		a := Int64(int64(v))
		a.value = v
		return a, nil
	}
	if int64(v) < math.MinInt32 || int64(v) > math.MaxInt32 {
		return nil, errors.New(errors.PhaseConvert, errors.KindOverflow).
			Path(path...).
			GoType("int").
			Value(v).
			Detail("value %d overflows %s pointer-sized integer", v, p).
			Build()
	}
	a := Int32(int32(v))
	a.value = v
	return a, nil
}

func narrowed(f float64, original any) *Arg {
	a := Double(f)
	a.value = original
	return a
}

func nilValue(path []string, goType string) error {
	return errors.New(errors.PhaseConvert, errors.KindInvalidInput).
		Path(path...).
		GoType(goType).
		Detail("nil value").
		Build()
}
