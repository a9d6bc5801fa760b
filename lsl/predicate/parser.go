package predicate

import (
	"fmt"
	"strconv"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl"
)

// expr is a compiled predicate node.
type expr interface {
	eval(info lsl.StreamInfo) (bool, error)
}

type orExpr struct {
	operands []expr
}

func (e *orExpr) eval(info lsl.StreamInfo) (bool, error) {
	for _, operand := range e.operands {
		ok, err := operand.eval(info)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type andExpr struct {
	operands []expr
}

func (e *andExpr) eval(info lsl.StreamInfo) (bool, error) {
	for _, operand := range e.operands {
		ok, err := operand.eval(info)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type notExpr struct {
	operand expr
}

func (e *notExpr) eval(info lsl.StreamInfo) (bool, error) {
	ok, err := e.operand.eval(info)
	return !ok, err
}

// condition is one field/operator/literal comparison.
type condition struct {
	field    string
	operator string
	literal  literal
}

func (c *condition) eval(info lsl.StreamInfo) (bool, error) {
	op, ok := operators[c.operator]
	if !ok {
		return false, errors.WrapInvalid(
			fmt.Errorf("unsupported operator %q", c.operator),
			"predicate", "eval", "operator lookup")
	}
	value, err := fieldValue(info, c.field)
	if err != nil {
		return false, err
	}
	return op(value, c.literal)
}

// literal is a parsed comparison operand: a string or a number.
type literal struct {
	text     string
	number   float64
	isNumber bool
}

// parser is a recursive-descent parser over the token stream.
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

// parseExpr := parseAnd { 'or' parseAnd }
func (p *parser) parseExpr() (expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	operands := []expr{first}
	for p.peek().kind == tokenIdent && p.peek().text == "or" {
		p.next()
		operand, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	if len(operands) == 1 {
		return first, nil
	}
	return &orExpr{operands: operands}, nil
}

// parseAnd := parseUnary { 'and' parseUnary }
func (p *parser) parseAnd() (expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	operands := []expr{first}
	for p.peek().kind == tokenIdent && p.peek().text == "and" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	if len(operands) == 1 {
		return first, nil
	}
	return &andExpr{operands: operands}, nil
}

// parseUnary := 'not' parseUnary | parsePrimary
func (p *parser) parseUnary() (expr, error) {
	if p.peek().kind == tokenIdent && p.peek().text == "not" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{operand: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary := '(' parseExpr ')' | condition
func (p *parser) parsePrimary() (expr, error) {
	if p.peek().kind == tokenLParen {
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return nil, errors.WrapInvalid(
				fmt.Errorf("expected ')' but found %s", closing),
				"predicate", "parse", "group")
		}
		return inner, nil
	}
	return p.parseCondition()
}

// parseCondition := field operator literal
func (p *parser) parseCondition() (expr, error) {
	field := p.next()
	if field.kind != tokenIdent {
		return nil, errors.WrapInvalid(
			fmt.Errorf("expected field name but found %s", field),
			"predicate", "parse", "field")
	}
	if !validFields[field.text] {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown field %q", field.text),
			"predicate", "parse", "field")
	}

	op := p.next()
	switch {
	case op.kind == tokenOperator:
		// = != < <= > >=
	case op.kind == tokenIdent && op.text == "contains":
		// word operator
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("expected operator after %q but found %s", field.text, op),
			"predicate", "parse", "operator")
	}

	value := p.next()
	lit := literal{text: value.text}
	switch value.kind {
	case tokenString:
		// keep as text
	case tokenNumber:
		number, err := strconv.ParseFloat(value.text, 64)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("bad number %q", value.text),
				"predicate", "parse", "literal")
		}
		lit.number = number
		lit.isNumber = true
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("expected literal after %q but found %s", op.text, value),
			"predicate", "parse", "literal")
	}

	return &condition{field: field.text, operator: op.text, literal: lit}, nil
}
