// Package tools provides the deterministic tools agents can dispatch to:
// a calculator, a datetime tool and a simulated weather lookup. Each tool
// implements the langchaingo tools.Tool interface so the ReAct agent can bind
// them directly.
package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/tools"
)

// Calculator evaluates arithmetic expressions. It supports +, -, *, /, floor
// division //, modulo % and parentheses.
type Calculator struct{}

var _ tools.Tool = Calculator{}

// NewCalculator creates a calculator tool.
func NewCalculator() Calculator {
	return Calculator{}
}

// Name returns the name of the tool.
func (Calculator) Name() string {
	return "calculator"
}

// Description returns the description of the tool.
func (Calculator) Description() string {
	return "Evaluate a math expression and return the result. " +
		"Supports basic arithmetic operations (+, -, *, /, //, %) and parentheses. " +
		"Input should be the expression, for example: 25 * 4 + 10"
}

// Call evaluates the expression and formats the result.
func (c Calculator) Call(_ context.Context, input string) (string, error) {
	result, err := Evaluate(input)
	if err != nil {
		return "", err
	}
	return "The answer is: " + formatNumber(result), nil
}

// Evaluate parses and computes an arithmetic expression. Floor division and
// modulo follow the floored convention, so the remainder takes the sign of
// the divisor.
func Evaluate(expression string) (float64, error) {
	p := &exprParser{input: []rune(expression)}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q in expression", p.input[p.pos])
	}
	return value, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exprParser struct {
	input []rune
	pos   int
}

// parseSum handles + and -.
func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case p.match('-'):
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseProduct handles *, /, // and %.
func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.match('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.matchFloorDiv():
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Floor(left / right)
		case p.match('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case p.match('%'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = floorMod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.match('-') {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	if p.match('+') {
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpaces()
	if p.match('(') {
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		if p.pos < len(p.input) {
			return 0, fmt.Errorf("unexpected character %q in expression", p.input[p.pos])
		}
		return 0, fmt.Errorf("unexpected end of expression")
	}
	value, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", string(p.input[start:p.pos]))
	}
	return value, nil
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) match(r rune) bool {
	if p.pos < len(p.input) && p.input[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) matchFloorDiv() bool {
	if p.pos+1 < len(p.input) && p.input[p.pos] == '/' && p.input[p.pos+1] == '/' {
		p.pos += 2
		return true
	}
	return false
}

func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// trimmedInput is shared by tools that take a single plain-text argument.
func trimmedInput(input string) string {
	return strings.TrimSpace(input)
}
