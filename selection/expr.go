package selection

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// Expr is a compiled cut expression evaluated against one record.
type Expr interface {
	Eval(rec ntuple.Record) (bool, error)
}

// Parse compiles a cut expression. The grammar covers what selection
// descriptors actually use: numeric comparisons between field names and
// literals, combined with !, && and ||, grouped by parentheses.
//
//	expr   := and ('||' and)*
//	and    := unary ('&&' unary)*
//	unary  := '!' unary | '(' expr ')' | cmp
//	cmp    := operand ('<' '<=' '>' '>=' '==' '!=') operand
//	operand:= field | number
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("selection: unexpected %q in %q", p.peek().text, input)
	}
	return e, nil
}

type tokKind int

const (
	tokField tokKind = iota
	tokNumber
	tokOp    // comparison operator
	tokAnd   // &&
	tokOr    // ||
	tokNot   // !
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, fmt.Errorf("selection: single '&' in %q", input)
			}
			toks = append(toks, token{tokAnd, "&&"})
			i += 2
		case c == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, fmt.Errorf("selection: single '|' in %q", input)
			}
			toks = append(toks, token{tokOr, "||"})
			i += 2
		case c == '<' || c == '>':
			op := string(c)
			i++
			if i < len(input) && input[i] == '=' {
				op += "="
				i++
			}
			toks = append(toks, token{tokOp, op})
		case c == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("selection: single '=' in %q", input)
			}
			toks = append(toks, token{tokOp, "=="})
			i += 2
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				toks = append(toks, token{tokOp, "!="})
				i += 2
			} else {
				toks = append(toks, token{tokNot, "!"})
				i++
			}
		case c == '-' || c == '.' || unicode.IsDigit(rune(c)):
			j := i + 1
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.' ||
				input[j] == 'e' || input[j] == 'E' ||
				((input[j] == '+' || input[j] == '-') && (input[j-1] == 'e' || input[j-1] == 'E'))) {
				j++
			}
			text := input[i:j]
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, fmt.Errorf("selection: bad number %q in %q", text, input)
			}
			toks = append(toks, token{tokNumber, text})
			i = j
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i + 1
			for j < len(input) && (input[j] == '_' || unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j]))) {
				j++
			}
			toks = append(toks, token{tokField, input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("selection: unexpected character %q in %q", string(c), input)
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool     { return p.pos >= len(p.toks) }
func (p *parser) peek() token   { return p.toks[p.pos] }
func (p *parser) advance() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) accept(kind tokKind) bool {
	if !p.eof() && p.toks[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.accept(tokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}
	if p.accept(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, fmt.Errorf("selection: missing ')'")
		}
		return inner, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.peek().kind != tokOp {
		return nil, fmt.Errorf("selection: expected comparison operator")
	}
	op := p.advance().text
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return cmpExpr{left: left, op: op, right: right}, nil
}

func (p *parser) parseOperand() (operand, error) {
	if p.eof() {
		return operand{}, fmt.Errorf("selection: unexpected end of expression")
	}
	t := p.advance()
	switch t.kind {
	case tokField:
		return operand{field: t.text}, nil
	case tokNumber:
		v, _ := strconv.ParseFloat(t.text, 64)
		return operand{literal: v, isLiteral: true}, nil
	}
	return operand{}, fmt.Errorf("selection: unexpected %q", t.text)
}

type operand struct {
	field     string
	literal   float64
	isLiteral bool
}

func (o operand) value(rec ntuple.Record) (float64, error) {
	if o.isLiteral {
		return o.literal, nil
	}
	return rec.Float(o.field)
}

type cmpExpr struct {
	left  operand
	op    string
	right operand
}

func (e cmpExpr) Eval(rec ntuple.Record) (bool, error) {
	l, err := e.left.value(rec)
	if err != nil {
		return false, err
	}
	r, err := e.right.value(rec)
	if err != nil {
		return false, err
	}
	switch e.op {
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	}
	return false, fmt.Errorf("selection: unknown operator %q", e.op)
}

type andExpr struct{ left, right Expr }

func (e andExpr) Eval(rec ntuple.Record) (bool, error) {
	l, err := e.left.Eval(rec)
	if err != nil || !l {
		return false, err
	}
	return e.right.Eval(rec)
}

type orExpr struct{ left, right Expr }

func (e orExpr) Eval(rec ntuple.Record) (bool, error) {
	l, err := e.left.Eval(rec)
	if err != nil || l {
		return l, err
	}
	return e.right.Eval(rec)
}

type notExpr struct{ inner Expr }

func (e notExpr) Eval(rec ntuple.Record) (bool, error) {
	v, err := e.inner.Eval(rec)
	return !v, err
}

// Fields returns the field names an expression references, for reader
// activation.
func Fields(e Expr) []string {
	seen := map[string]struct{}{}
	collectFields(e, seen)
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	return out
}

func collectFields(e Expr, seen map[string]struct{}) {
	switch v := e.(type) {
	case cmpExpr:
		if !v.left.isLiteral {
			seen[v.left.field] = struct{}{}
		}
		if !v.right.isLiteral {
			seen[v.right.field] = struct{}{}
		}
	case andExpr:
		collectFields(v.left, seen)
		collectFields(v.right, seen)
	case orExpr:
		collectFields(v.left, seen)
		collectFields(v.right, seen)
	case notExpr:
		collectFields(v.inner, seen)
	}
}
