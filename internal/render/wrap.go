package render

import (
	"math"
	"strings"
	"unicode"
)

// Wrap breaks text into lines no wider than width using greedy token fill.
// Explicit newlines always break; a single token wider than the line is split
// by width. Trailing whitespace is trimmed from each line. Empty text yields
// no lines.
func Wrap(text string, width float64, measure func(string) float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []string
	var b strings.Builder
	current := 0.0

	emit := func() {
		lines = append(lines, strings.TrimRightFunc(b.String(), unicode.IsSpace))
		b.Reset()
		current = 0
	}
	add := func(tok string, w float64) {
		if b.Len() == 0 && isSpace(tok) {
			return
		}
		b.WriteString(tok)
		current += w
	}

	for _, tok := range tokenize(text) {
		if tok == "\n" {
			emit()
			continue
		}
		w := measure(tok)
		if current > 0 && current+w > limit && !isSpace(tok) {
			emit()
		}
		if w <= limit {
			add(tok, w)
			continue
		}
		for _, chunk := range splitByWidth(tok, limit, measure) {
			cw := measure(chunk)
			if current > 0 && current+cw > limit {
				emit()
			}
			add(chunk, cw)
		}
	}
	if b.Len() > 0 {
		emit()
	}
	return lines
}

func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	lastSpace := false
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			continue
		}
		sp := unicode.IsSpace(r)
		if b.Len() > 0 && sp != lastSpace {
			flush()
		}
		lastSpace = sp
		b.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(tok string, limit float64, measure func(string) float64) []string {
	var parts []string
	var b strings.Builder
	for _, r := range tok {
		b.WriteRune(r)
		if measure(b.String()) > limit && len([]rune(b.String())) > 1 {
			runes := []rune(b.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			b.Reset()
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func isSpace(tok string) bool {
	return strings.TrimSpace(tok) == ""
}
