package vararg

// Kind is the variant tag of an Arg.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindInt64
	KindDouble
	KindSingle
	KindDecimal
	KindChar
	KindString
)

var kindNames = [...]string{
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindDouble:  "double",
	KindSingle:  "single",
	KindDecimal: "decimal",
	KindChar:    "char",
	KindString:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsText reports whether the slot holds the address of a secondary allocation.
func (k Kind) IsText() bool {
	return k == KindChar || k == KindString
}

// IsFloat reports whether the slot holds an IEEE 754 value.
func (k Kind) IsFloat() bool {
	return k == KindDouble || k == KindSingle || k == KindDecimal
}
