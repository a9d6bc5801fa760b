package predicate

import (
	"fmt"
	"strings"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
)

// operand is a resolved field value: a string field or the numeric
// sampling rate.
type operand struct {
	text     string
	number   float64
	isNumber bool
}

// validFields lists the StreamInfo columns a predicate may reference.
var validFields = map[string]bool{
	"uid":           true,
	"name":          true,
	"type":          true,
	"hostname":      true,
	"source_id":     true,
	"nominal_srate": true,
}

// fieldValue resolves a field name against a descriptor.
func fieldValue(info lsl.StreamInfo, field string) (operand, error) {
	switch field {
	case "uid":
		return operand{text: info.UID}, nil
	case "name":
		return operand{text: info.Name}, nil
	case "type":
		return operand{text: info.Type}, nil
	case "hostname":
		return operand{text: info.Hostname}, nil
	case "source_id":
		return operand{text: info.SourceID}, nil
	case "nominal_srate":
		return operand{number: info.NominalSRate, isNumber: true}, nil
	default:
		return operand{}, errors.WrapInvalid(
			fmt.Errorf("unknown field %q", field),
			"predicate", "fieldValue", "resolve")
	}
}

// operatorFunc evaluates one comparison.
type operatorFunc func(value operand, lit literal) (bool, error)

// operators maps operator spellings to their implementations.
var operators = map[string]operatorFunc{
	"=":        operatorEqual,
	"!=":       operatorNotEqual,
	"<":        orderingOperator(func(a, b float64) bool { return a < b }, "<"),
	"<=":       orderingOperator(func(a, b float64) bool { return a <= b }, "<="),
	">":        orderingOperator(func(a, b float64) bool { return a > b }, ">"),
	">=":       orderingOperator(func(a, b float64) bool { return a >= b }, ">="),
	"contains": operatorContains,
}

func operatorEqual(value operand, lit literal) (bool, error) {
	if value.isNumber {
		if !lit.isNumber {
			return false, numericLiteralError("=")
		}
		return value.number == lit.number, nil
	}
	return value.text == lit.text, nil
}

func operatorNotEqual(value operand, lit literal) (bool, error) {
	equal, err := operatorEqual(value, lit)
	return !equal, err
}

func operatorContains(value operand, lit literal) (bool, error) {
	if value.isNumber {
		return false, errors.WrapInvalid(
			fmt.Errorf("contains requires a string field"),
			"predicate", "eval", "contains")
	}
	return strings.Contains(value.text, lit.text), nil
}

// orderingOperator builds a numeric comparison; ordering on string fields
// is rejected rather than silently compared lexicographically.
func orderingOperator(cmp func(a, b float64) bool, name string) operatorFunc {
	return func(value operand, lit literal) (bool, error) {
		if !value.isNumber {
			return false, errors.WrapInvalid(
				fmt.Errorf("operator %s requires a numeric field", name),
				"predicate", "eval", "ordering")
		}
		if !lit.isNumber {
			return false, numericLiteralError(name)
		}
		return cmp(value.number, lit.number), nil
	}
}

func numericLiteralError(op string) error {
	return errors.WrapInvalid(
		fmt.Errorf("operator %s requires a numeric literal", op),
		"predicate", "eval", "literal type")
}

// Predicate is a compiled stream filter.
type Predicate struct {
	raw  string
	expr expr // nil means match-all
}

// Compile parses a predicate source string. The empty string compiles to a
// match-all predicate, mirroring "record everything" semantics.
func Compile(src string) (*Predicate, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return &Predicate{raw: ""}, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidPredicate, "predicate", "Compile", err.Error())
	}

	p := &parser{tokens: tokens}
	compiled, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidPredicate, "predicate", "Compile", err.Error())
	}
	if trailing := p.next(); trailing.kind != tokenEOF {
		return nil, errors.Wrap(errors.ErrInvalidPredicate, "predicate", "Compile",
			fmt.Sprintf("unexpected trailing input %s", trailing))
	}

	return &Predicate{raw: trimmed, expr: compiled}, nil
}

// MustCompile is Compile for predicates known valid at build time; it
// panics on error. Intended for tests and defaults.
func MustCompile(src string) *Predicate {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether a stream descriptor satisfies the predicate.
// Evaluation errors (a type mismatch surfacing only at runtime) exclude
// the stream rather than aborting discovery.
func (p *Predicate) Match(info lsl.StreamInfo) bool {
	if p == nil || p.expr == nil {
		return true
	}
	ok, err := p.expr.eval(info)
	if err != nil {
		return false
	}
	return ok
}

// IsMatchAll reports whether the predicate accepts every stream.
func (p *Predicate) IsMatchAll() bool {
	return p == nil || p.expr == nil
}

// String returns the original predicate source.
func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	return p.raw
}
