package predicate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/UlloLabs/LSL2Logs/errors"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent           // field names and keywords (and, or, not, contains)
	tokenString          // 'single quoted'
	tokenNumber          // 250, 0.5
	tokenOperator        // = != < <= > >=
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// tokenize splits a predicate source string into tokens.
func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++

		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++

		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++

		case c == '\'':
			end := strings.IndexByte(src[i+1:], '\'')
			if end < 0 {
				return nil, errors.WrapInvalid(
					fmt.Errorf("unterminated string literal at offset %d", i),
					"predicate", "tokenize", "string literal")
			}
			tokens = append(tokens, token{tokenString, src[i+1 : i+1+end], i})
			i += end + 2

		case c == '=':
			tokens = append(tokens, token{tokenOperator, "=", i})
			i++

		case c == '!':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, errors.WrapInvalid(
					fmt.Errorf("unexpected %q at offset %d", c, i),
					"predicate", "tokenize", "operator")
			}
			tokens = append(tokens, token{tokenOperator, "!=", i})
			i += 2

		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{tokenOperator, op, i})
			i++

		case unicode.IsDigit(rune(c)):
			j := i
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokenNumber, src[i:j], i})
			i = j

		case unicode.IsLetter(rune(c)) || c == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			tokens = append(tokens, token{tokenIdent, src[i:j], i})
			i = j

		default:
			return nil, errors.WrapInvalid(
				fmt.Errorf("unexpected character %q at offset %d", c, i),
				"predicate", "tokenize", "scan")
		}
	}

	tokens = append(tokens, token{tokenEOF, "", len(src)})
	return tokens, nil
}
