package expr

import (
	"strconv"
	"strings"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	TERNARY     // ?:
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * /
	PREFIX      // -x !x
	POSTFIX     // x%
	CALL        // fn(x), a.b
)

// precedences maps tokens to their precedence
var precedences = map[TokenType]int{
	QUESTION: TERNARY,
	OR:       LOGIC_OR,
	AND:      LOGIC_AND,
	EQ:       EQUALS,
	NOT_EQ:   EQUALS,
	LT:       LESSGREATER,
	GT:       LESSGREATER,
	LTE:      LESSGREATER,
	GTE:      LESSGREATER,
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
	PERCENT:  POSTFIX,
	DOT:      CALL,
	LPAREN:   CALL,
}

type (
	prefixParseFn func() astNode
	infixParseFn  func(astNode) astNode
)

// parser consumes tokens from a Lexer and produces an expression tree.
type parser struct {
	l      *Lexer
	source string

	curToken  Token
	peekToken Token

	err *errors.Error

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

func newParser(source string) *parser {
	p := &parser{
		l:      NewLexer(source),
		source: source,
	}

	p.prefixParseFns = map[TokenType]prefixParseFn{
		NUMBER: p.parseNumberLiteral,
		STRING: p.parseStringLiteral,
		COLOR:  p.parseColorLiteral,
		TRUE:   p.parseBoolLiteral,
		FALSE:  p.parseBoolLiteral,
		IDENT:  p.parseIdentifier,
		MINUS:  p.parsePrefixExpression,
		BANG:   p.parsePrefixExpression,
		LPAREN: p.parseGroupedExpression,
	}
	p.infixParseFns = map[TokenType]infixParseFn{
		PLUS:     p.parseInfixExpression,
		MINUS:    p.parseInfixExpression,
		ASTERISK: p.parseInfixExpression,
		SLASH:    p.parseInfixExpression,
		EQ:       p.parseInfixExpression,
		NOT_EQ:   p.parseInfixExpression,
		LT:       p.parseInfixExpression,
		GT:       p.parseInfixExpression,
		LTE:      p.parseInfixExpression,
		GTE:      p.parseInfixExpression,
		AND:      p.parseInfixExpression,
		OR:       p.parseInfixExpression,
		PERCENT:  p.parsePercentExpression,
		QUESTION: p.parseConditionalExpression,
		DOT:      p.parseDotExpression,
		LPAREN:   p.parseCallExpression,
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole-string expression ("100% - width"). Parsing is
// side-effect-free and requires no resolution context; failures are parse
// errors naming the offending substring and its byte offset.
func Parse(source string) (*Expression, *errors.Error) {
	p := newParser(source)
	root := p.parseExpression(LOWEST)
	if p.err != nil {
		p.err.Expression = source
		return nil, p.err
	}
	p.nextToken()
	if p.curToken.Type != EOF {
		return nil, parseError(source, p.curToken, "unexpected %q", p.curToken.Literal)
	}
	return finish(source, root, false), nil
}

func finish(source string, root astNode, template bool) *Expression {
	e := &Expression{source: source, root: root, template: template}
	collectSymbols(root, &e.symbols)
	return e
}

func parseError(source string, tok Token, format string, args ...any) *errors.Error {
	err := errors.New("expr.Parse", errors.KindParse, format, args...)
	err.Expression = source
	err.Err = &offsetError{offset: tok.Pos, err: err.Err}
	return err
}

// offsetError decorates a parse failure with the byte offset of the
// offending token.
type offsetError struct {
	offset int
	err    error
}

func (e *offsetError) Error() string {
	return e.err.Error() + " at offset " + strconv.Itoa(e.offset)
}

func (e *offsetError) Unwrap() error { return e.err }

// Offset returns the byte position of the offending token.
func (e *offsetError) Offset() int { return e.offset }

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *parser) fail(tok Token, format string, args ...any) {
	if p.err == nil {
		p.err = parseError(p.source, tok, format, args...)
	}
}

func (p *parser) expectPeek(t TokenType) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.fail(p.peekToken, "expected %s, found %q", t, p.peekToken.Literal)
	return false
}

func (p *parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *parser) parseExpression(precedence int) astNode {
	if p.err != nil {
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		if p.curToken.Type == EOF {
			p.fail(p.curToken, "unexpected end of expression")
		} else {
			p.fail(p.curToken, "unexpected %q", p.curToken.Literal)
		}
		return nil
	}
	left := prefix()

	for p.err == nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *parser) parseNumberLiteral() astNode {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(p.curToken, "invalid number %q", p.curToken.Literal)
		return nil
	}
	return &numberLit{Value: value}
}

func (p *parser) parseStringLiteral() astNode {
	return &stringLit{Value: p.curToken.Literal}
}

func (p *parser) parseBoolLiteral() astNode {
	return &boolLit{Value: p.curToken.Type == TRUE}
}

func (p *parser) parseColorLiteral() astNode {
	color, err := geometry.ParseHexColor(p.curToken.Literal)
	if err != nil {
		p.fail(p.curToken, "%v", err)
		return nil
	}
	return &colorLit{Value: color}
}

func (p *parser) parseIdentifier() astNode {
	return &identExpr{Path: []string{p.curToken.Literal}}
}

func (p *parser) parsePrefixExpression() astNode {
	op := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	return &prefixExpr{Op: op, Right: right}
}

func (p *parser) parseInfixExpression(left astNode) astNode {
	op := p.curToken.Literal
	precedence := precedences[p.curToken.Type]
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &infixExpr{Op: op, Left: left, Right: right}
}

// parsePercentExpression handles the postfix % operator. It consumes no
// right operand: "50% - 10" parses as (50%) - 10.
func (p *parser) parsePercentExpression(left astNode) astNode {
	return &percentExpr{Operand: left}
}

func (p *parser) parseConditionalExpression(cond astNode) astNode {
	p.nextToken()
	then := p.parseExpression(LOWEST)
	if then == nil {
		return nil
	}
	if !p.expectPeek(COLON) {
		return nil
	}
	p.nextToken()
	alt := p.parseExpression(TERNARY)
	if alt == nil {
		return nil
	}
	return &conditionalExpr{Cond: cond, Then: then, Else: alt}
}

// parseDotExpression extends a symbol reference with another path segment
// ("previous" DOT "bottom" -> previous.bottom).
func (p *parser) parseDotExpression(left astNode) astNode {
	ident, ok := left.(*identExpr)
	if !ok {
		p.fail(p.curToken, "left side of '.' must be a symbol reference")
		return nil
	}
	if !p.expectPeek(IDENT) {
		return nil
	}
	path := make([]string, len(ident.Path), len(ident.Path)+1)
	copy(path, ident.Path)
	return &identExpr{Path: append(path, p.curToken.Literal)}
}

func (p *parser) parseCallExpression(fn astNode) astNode {
	ident, ok := fn.(*identExpr)
	if !ok || len(ident.Path) != 1 {
		p.fail(p.curToken, "only named functions can be called")
		return nil
	}
	name := ident.Path[0]
	builtin, ok := LookupFunc(name)
	if !ok {
		p.fail(p.curToken, "unknown function %q", name)
		return nil
	}

	var args []astNode
	if p.peekToken.Type == RPAREN {
		p.nextToken()
	} else {
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
		for p.err == nil && p.peekToken.Type == COMMA {
			p.nextToken()
			p.nextToken()
			args = append(args, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(RPAREN) {
			return nil
		}
	}
	if p.err != nil {
		return nil
	}

	if len(args) < builtin.MinArgs || (builtin.MaxArgs >= 0 && len(args) > builtin.MaxArgs) {
		p.fail(p.curToken, "%s expects %s, got %d", name, builtin.arity(), len(args))
		return nil
	}
	return &callExpr{Name: name, Args: args}
}

func (p *parser) parseGroupedExpression() astNode {
	p.nextToken()
	inner := p.parseExpression(LOWEST)
	if inner == nil {
		return nil
	}
	if !p.expectPeek(RPAREN) {
		return nil
	}
	return inner
}

// ParseTemplate parses a string-interpolation source: literal text with
// embedded {expr} segments. Doubled braces ("{{", "}}") escape literal
// braces. A template that is exactly one {expr} spanning the whole string
// evaluates to the inner value unchanged.
func ParseTemplate(source string) (*Expression, *errors.Error) {
	var parts []astNode
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, &stringLit{Value: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '{':
			if i+1 < len(source) && source[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := matchingBrace(source, i)
			if end < 0 {
				err := errors.New("expr.ParseTemplate", errors.KindParse,
					"unterminated '{' at offset %d", i)
				err.Expression = source
				return nil, err
			}
			inner, perr := Parse(source[i+1 : end])
			if perr != nil {
				perr.Expression = source
				return nil, perr
			}
			flush()
			parts = append(parts, inner.root)
			i = end
		case '}':
			if i+1 < len(source) && source[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			err := errors.New("expr.ParseTemplate", errors.KindParse,
				"unmatched '}' at offset %d", i)
			err.Expression = source
			return nil, err
		default:
			literal.WriteByte(source[i])
		}
	}
	flush()

	return finish(source, &templateExpr{Parts: parts}, true), nil
}

// matchingBrace returns the index of the '}' closing the '{' at open,
// or -1 when unterminated. Braces inside quoted strings are skipped.
func matchingBrace(source string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(source); i++ {
		ch := source[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
