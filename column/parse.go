package column

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gear6io/chnative/pkg/errors"
)

// Parse turns a type expression as emitted by the server ("Array(Int32)",
// "Decimal(18, 4)", "Enum8('a' = 1)") into a descriptor. Lookup of type
// names is case-sensitive and exact.
func Parse(expr string) (*Type, error) {
	lx := &lexer{input: expr}
	t, err := parseType(lx)
	if err != nil {
		return nil, err
	}
	if tok := lx.next(); tok.kind != tokenEOF {
		return nil, errors.Newf(ErrTypeParse, "trailing input %q in type expression %q", tok.text, expr)
	}
	return t, nil
}

// MustParse is Parse for statically known expressions.
func MustParse(expr string) *Type {
	t, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// Arg is one parsed argument of a parameterized type expression: either a
// nested type, an integer literal, or a single-quoted string literal.
type Arg struct {
	Type *Type
	Str  string
	Int  int64

	IsType bool
	IsStr  bool
	IsInt  bool
}

// Creator builds a descriptor for a registered type name from its
// argument list. The enum table, when present, arrives pre-parsed.
type Creator func(name string, args []Arg, enum []EnumEntry) (*Type, error)

var creators = map[string]Creator{}

// RegisterType installs a creator for a type name token. Registration
// happens at package init; the registry is read-only afterwards and safe
// for concurrent lookups.
func RegisterType(name string, c Creator) {
	if _, dup := creators[name]; dup {
		panic(fmt.Sprintf("column: duplicate type registration %q", name))
	}
	creators[name] = c
}

// --- lexer ---

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenInt
	tokenString
	tokenLParen
	tokenRParen
	tokenComma
	tokenEquals
	tokenBad
)

type token struct {
	kind tokenKind
	text string
	num  int64
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() token {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF}
	}
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokenLParen, text: "("}
	case c == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")"}
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ","}
	case c == '=':
		l.pos++
		return token{kind: tokenEquals, text: "="}
	case c == '\'':
		return l.lexString()
	case c == '-' || (c >= '0' && c <= '9'):
		return l.lexInt()
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.input[start:l.pos]}
	default:
		l.pos++
		return token{kind: tokenBad, text: string(c)}
	}
}

func (l *lexer) peek() token {
	saved := l.pos
	tok := l.next()
	l.pos = saved
	return tok
}

func (l *lexer) lexString() token {
	// Opening quote already seen.
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{kind: tokenBad, text: "\\"}
			}
			esc := l.input[l.pos+1]
			if esc != '\\' && esc != '\'' {
				return token{kind: tokenBad, text: string(esc)}
			}
			sb.WriteByte(esc)
			l.pos += 2
		case '\'':
			l.pos++
			return token{kind: tokenString, text: sb.String()}
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{kind: tokenBad, text: "unterminated string"}
}

func (l *lexer) lexInt() token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	text := l.input[start:l.pos]
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{kind: tokenBad, text: text}
	}
	return token{kind: tokenInt, text: text, num: n}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// --- parser ---

func parseType(lx *lexer) (*Type, error) {
	tok := lx.next()
	if tok.kind != tokenIdent {
		return nil, errors.Newf(ErrTypeParse, "expected type name, got %q", tok.text)
	}
	name := tok.text

	creator, ok := creators[name]
	if !ok {
		return nil, errors.Newf(ErrUnsupportedType, "unknown type %q", name)
	}

	var args []Arg
	var enum []EnumEntry
	if lx.peek().kind == tokenLParen {
		lx.next()
		var err error
		if name == "Enum8" || name == "Enum16" {
			enum, err = parseEnumEntries(lx)
		} else {
			args, err = parseArgList(lx)
		}
		if err != nil {
			return nil, err
		}
	}

	return creator(name, args, enum)
}

func parseArgList(lx *lexer) ([]Arg, error) {
	var args []Arg
	for {
		tok := lx.peek()
		switch tok.kind {
		case tokenInt:
			lx.next()
			args = append(args, Arg{Int: tok.num, IsInt: true})
		case tokenString:
			lx.next()
			args = append(args, Arg{Str: tok.text, IsStr: true})
		case tokenIdent:
			inner, err := parseType(lx)
			if err != nil {
				return nil, err
			}
			args = append(args, Arg{Type: inner, IsType: true})
		default:
			return nil, errors.Newf(ErrTypeParse, "unexpected token %q in argument list", tok.text)
		}

		switch tok := lx.next(); tok.kind {
		case tokenComma:
			continue
		case tokenRParen:
			return args, nil
		default:
			return nil, errors.Newf(ErrTypeParse, "expected ',' or ')', got %q", tok.text)
		}
	}
}

func parseEnumEntries(lx *lexer) ([]EnumEntry, error) {
	var entries []EnumEntry
	for {
		name := lx.next()
		if name.kind != tokenString {
			return nil, errors.Newf(ErrTypeParse, "expected enum member name, got %q", name.text)
		}
		if eq := lx.next(); eq.kind != tokenEquals {
			return nil, errors.Newf(ErrTypeParse, "expected '=' after enum member %q", name.text)
		}
		value := lx.next()
		if value.kind != tokenInt {
			return nil, errors.Newf(ErrTypeParse, "expected enum value for member %q", name.text)
		}
		if value.num < -32768 || value.num > 32767 {
			return nil, errors.Newf(ErrTypeParse, "enum value %d for member %q out of range", value.num, name.text)
		}
		entries = append(entries, EnumEntry{Name: name.text, Value: int16(value.num)})

		switch tok := lx.next(); tok.kind {
		case tokenComma:
			continue
		case tokenRParen:
			return entries, nil
		default:
			return nil, errors.Newf(ErrTypeParse, "expected ',' or ')', got %q", tok.text)
		}
	}
}

// --- built-in creators ---

func simpleCreator(kind Kind) Creator {
	return func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 0 {
			return nil, errors.Newf(ErrTypeParse, "%s takes no arguments", name)
		}
		return &Type{Name: name, Kind: kind}, nil
	}
}

func init() {
	RegisterType("UInt8", simpleCreator(KindUInt8))
	RegisterType("UInt16", simpleCreator(KindUInt16))
	RegisterType("UInt32", simpleCreator(KindUInt32))
	RegisterType("UInt64", simpleCreator(KindUInt64))
	RegisterType("Int8", simpleCreator(KindInt8))
	RegisterType("Int16", simpleCreator(KindInt16))
	RegisterType("Int32", simpleCreator(KindInt32))
	RegisterType("Int64", simpleCreator(KindInt64))
	RegisterType("Float32", simpleCreator(KindFloat32))
	RegisterType("Float64", simpleCreator(KindFloat64))
	RegisterType("String", simpleCreator(KindString))
	RegisterType("Date", simpleCreator(KindDate))
	RegisterType("UUID", simpleCreator(KindUUID))

	RegisterType("FixedString", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 1 || !args[0].IsInt || args[0].Int <= 0 {
			return nil, errors.Newf(ErrTypeParse, "FixedString requires one positive length argument")
		}
		n := int(args[0].Int)
		return &Type{Name: fmt.Sprintf("FixedString(%d)", n), Kind: KindFixedString, FixedLen: n}, nil
	})

	RegisterType("DateTime", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		switch {
		case len(args) == 0:
			return &Type{Name: "DateTime", Kind: KindDateTime}, nil
		case len(args) == 1 && args[0].IsStr:
			return &Type{
				Name:     fmt.Sprintf("DateTime(%s)", quoteEnumName(args[0].Str)),
				Kind:     KindDateTime,
				Timezone: args[0].Str,
			}, nil
		default:
			return nil, errors.Newf(ErrTypeParse, "DateTime takes an optional timezone string")
		}
	})

	RegisterType("DateTime64", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) < 1 || !args[0].IsInt || args[0].Int < 0 || args[0].Int > 9 {
			return nil, errors.Newf(ErrTypeParse, "DateTime64 requires a precision between 0 and 9")
		}
		t := &Type{Kind: KindDateTime64, Scale: int(args[0].Int)}
		switch {
		case len(args) == 1:
			t.Name = fmt.Sprintf("DateTime64(%d)", t.Scale)
		case len(args) == 2 && args[1].IsStr:
			t.Timezone = args[1].Str
			t.Name = fmt.Sprintf("DateTime64(%d, %s)", t.Scale, quoteEnumName(t.Timezone))
		default:
			return nil, errors.Newf(ErrTypeParse, "DateTime64 takes a precision and an optional timezone")
		}
		return t, nil
	})

	RegisterType("Decimal", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 2 || !args[0].IsInt || !args[1].IsInt {
			return nil, errors.Newf(ErrTypeParse, "Decimal requires precision and scale arguments")
		}
		return newDecimal(int(args[0].Int), int(args[1].Int))
	})
	RegisterType("Decimal32", decimalAlias(9))
	RegisterType("Decimal64", decimalAlias(18))
	RegisterType("Decimal128", decimalAlias(38))
	RegisterType("Decimal256", decimalAlias(76))

	RegisterType("Enum8", enumCreator(KindEnum8, -128, 127))
	RegisterType("Enum16", enumCreator(KindEnum16, -32768, 32767))

	RegisterType("Nullable", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 1 || !args[0].IsType {
			return nil, errors.Newf(ErrTypeParse, "Nullable requires one inner type")
		}
		inner := args[0].Type
		switch inner.Kind {
		case KindArray, KindMap, KindTuple, KindNullable, KindLowCardinality:
			return nil, errors.Newf(ErrUnsupportedComposition, "Nullable(%s) is not supported", inner.Name)
		}
		return &Type{Name: fmt.Sprintf("Nullable(%s)", inner.Name), Kind: KindNullable, Elem: inner}, nil
	})

	RegisterType("Array", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 1 || !args[0].IsType {
			return nil, errors.Newf(ErrTypeParse, "Array requires one inner type")
		}
		return &Type{Name: fmt.Sprintf("Array(%s)", args[0].Type.Name), Kind: KindArray, Elem: args[0].Type}, nil
	})

	RegisterType("LowCardinality", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 1 || !args[0].IsType {
			return nil, errors.Newf(ErrTypeParse, "LowCardinality requires one inner type")
		}
		inner := args[0].Type
		switch inner.Kind {
		case KindArray, KindMap, KindTuple, KindNullable, KindLowCardinality:
			return nil, errors.Newf(ErrUnsupportedComposition, "LowCardinality(%s) is not supported", inner.Name)
		}
		return &Type{Name: fmt.Sprintf("LowCardinality(%s)", inner.Name), Kind: KindLowCardinality, Elem: inner}, nil
	})

	RegisterType("Tuple", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) == 0 {
			return nil, errors.Newf(ErrTypeParse, "Tuple requires at least one element type")
		}
		elems := make([]*Type, len(args))
		names := make([]string, len(args))
		for i, a := range args {
			if !a.IsType {
				return nil, errors.Newf(ErrTypeParse, "Tuple arguments must be types")
			}
			elems[i] = a.Type
			names[i] = a.Type.Name
		}
		return &Type{
			Name:  fmt.Sprintf("Tuple(%s)", strings.Join(names, ", ")),
			Kind:  KindTuple,
			Elems: elems,
		}, nil
	})

	RegisterType("Map", func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 2 || !args[0].IsType || !args[1].IsType {
			return nil, errors.Newf(ErrTypeParse, "Map requires key and value types")
		}
		return &Type{
			Name:  fmt.Sprintf("Map(%s, %s)", args[0].Type.Name, args[1].Type.Name),
			Kind:  KindMap,
			Key:   args[0].Type,
			Value: args[1].Type,
		}, nil
	})
}

func decimalAlias(precision int) Creator {
	return func(name string, args []Arg, _ []EnumEntry) (*Type, error) {
		if len(args) != 1 || !args[0].IsInt {
			return nil, errors.Newf(ErrTypeParse, "%s requires a scale argument", name)
		}
		return newDecimal(precision, int(args[0].Int))
	}
}

func newDecimal(precision, scale int) (*Type, error) {
	if precision < 1 || precision > 76 {
		return nil, errors.Newf(ErrTypeParse, "Decimal precision %d out of range 1..76", precision)
	}
	if scale < 0 || scale > precision {
		return nil, errors.Newf(ErrTypeParse, "Decimal scale %d out of range 0..%d", scale, precision)
	}
	return &Type{
		Name:      fmt.Sprintf("Decimal(%d, %d)", precision, scale),
		Kind:      KindDecimal,
		Precision: precision,
		Scale:     scale,
	}, nil
}

func enumCreator(kind Kind, min, max int64) Creator {
	base := "Enum8"
	if kind == KindEnum16 {
		base = "Enum16"
	}
	return func(name string, args []Arg, enum []EnumEntry) (*Type, error) {
		if len(enum) == 0 {
			return nil, errors.Newf(ErrTypeParse, "%s requires a member table", base)
		}
		seen := make(map[int16]bool, len(enum))
		for _, e := range enum {
			if int64(e.Value) < min || int64(e.Value) > max {
				return nil, errors.Newf(ErrTypeParse, "%s value %d out of range", base, e.Value)
			}
			if seen[e.Value] {
				return nil, errors.Newf(ErrTypeParse, "%s duplicate value %d", base, e.Value)
			}
			seen[e.Value] = true
		}
		t := &Type{Name: enumCanonical(base, enum), Kind: kind, Enum: enum}
		t.indexEnum()
		return t, nil
	}
}
