package discount

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The release password rotates daily: it is derived from a formula stored in
// the legacy parameter table, e.g. "Dia", "Dia*2+1" or "Dia+Mes". Tokens are
// substituted with the current date parts and the remaining arithmetic
// expression is evaluated. Anything unparseable falls back to the day of month.

var (
	formulaTokens = []struct {
		pattern *regexp.Regexp
		value   func(time.Time) int
	}{
		{regexp.MustCompile(`(?i)\bano\b`), func(t time.Time) int { return t.Year() }},
		{regexp.MustCompile(`(?i)\bmes\b`), func(t time.Time) int { return int(t.Month()) }},
		{regexp.MustCompile(`(?i)\bdia\b`), func(t time.Time) int { return t.Day() }},
		{regexp.MustCompile(`(?i)\bhora\b`), func(t time.Time) int { return t.Hour() }},
		{regexp.MustCompile(`(?i)\bminuto\b`), func(t time.Time) int { return t.Minute() }},
	}
	arithmeticOnly = regexp.MustCompile(`^[\d+\-*/()]+$`)
	nonDigits      = regexp.MustCompile(`[^\d]`)
)

// ComputePassword evaluates the password formula for the given instant.
func ComputePassword(formula string, now time.Time) string {
	fallback := strconv.Itoa(now.Day())

	formula = strings.TrimSpace(formula)
	if formula == "" {
		return fallback
	}

	expanded := formula
	for _, tok := range formulaTokens {
		expanded = tok.pattern.ReplaceAllString(expanded, strconv.Itoa(tok.value(now)))
	}
	expanded = strings.ReplaceAll(expanded, " ", "")

	if arithmeticOnly.MatchString(expanded) {
		result, err := evalExpression(expanded)
		if err != nil {
			return fallback
		}
		return strconv.Itoa(int(result))
	}

	// Not an arithmetic expression: keep whatever digits survive.
	digits := nonDigits.ReplaceAllString(expanded, "")
	if digits == "" {
		return fallback
	}
	return digits
}

// evalExpression evaluates +, -, *, / and parentheses over integers with the
// usual precedence. Division is carried out in floating point and the final
// result truncated, matching the legacy behaviour.
func evalExpression(s string) (float64, error) {
	p := &exprParser{input: s}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character at %d", p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	case '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at %d", p.pos)
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at %d", start)
	}
	return strconv.ParseFloat(p.input[start:p.pos], 64)
}
