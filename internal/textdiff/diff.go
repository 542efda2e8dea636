// Package textdiff computes word-level differences between two versions of a
// message and renders them as colorized markup for the log channel.
package textdiff

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"maestro/internal/utils"
)

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

type Span struct {
	Op   Op
	Text string
}

// Words diffs old and new at word granularity. Concatenating the Equal and
// Insert spans yields new; concatenating Equal and Delete spans yields old.
func Words(old, new string) []Span {
	oldTokens := tokenize(old)
	newTokens := tokenize(new)

	table := newTokenTable()
	oldRunes := table.encode(oldTokens)
	newRunes := table.encode(newTokens)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)

	spans := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		text := table.decode(d.Text)
		if text == "" {
			continue
		}
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		if n := len(spans); n > 0 && spans[n-1].Op == op {
			spans[n-1].Text += text
			continue
		}
		spans = append(spans, Span{Op: op, Text: text})
	}
	return spans
}

// Changed reports whether any span is an insertion or deletion.
func Changed(spans []Span) bool {
	for _, span := range spans {
		if span.Op != Equal {
			return true
		}
	}
	return false
}

// Old and New rebuild each side of the diff.
func Old(spans []Span) string { return join(spans, Delete) }

func New(spans []Span) string { return join(spans, Insert) }

func join(spans []Span, keep Op) string {
	var b strings.Builder
	for _, span := range spans {
		if span.Op == Equal || span.Op == keep {
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

// tokenize splits text into runs of word characters, runs of whitespace and
// single punctuation runes.
func tokenize(text string) []string {
	var tokens []string
	var current []rune
	class := -1
	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}
	for _, r := range text {
		c := runeClass(r)
		if c != class || c == classPunct {
			flush()
			class = c
		}
		current = append(current, r)
	}
	flush()
	return tokens
}

const (
	classWord = iota
	classSpace
	classPunct
)

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r):
		return classWord
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classPunct
	}
}

// tokenTable maps each distinct token to a single rune so the character
// diff engine operates on whole words.
type tokenTable struct {
	ids    map[string]rune
	tokens []string
}

func newTokenTable() *tokenTable {
	return &tokenTable{ids: make(map[string]rune)}
}

func (t *tokenTable) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, token := range tokens {
		id, ok := t.ids[token]
		if !ok {
			id = indexRune(len(t.tokens))
			t.ids[token] = id
			t.tokens = append(t.tokens, token)
		}
		out[i] = id
	}
	return out
}

func (t *tokenTable) decode(encoded string) string {
	var b strings.Builder
	for _, r := range encoded {
		if idx := runeIndex(r); idx >= 0 && idx < len(t.tokens) {
			b.WriteString(t.tokens[idx])
		}
	}
	return b.String()
}

// indexRune skips the surrogate block so every id is a valid rune.
func indexRune(idx int) rune {
	r := rune(idx + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeIndex(r rune) int {
	if r >= 0xE000 {
		r -= 0x800
	}
	return int(r) - 1
}

// RenderANSI wraps the diff in an ansi code block: insertions in green,
// deletions in red, each bracketed by a colored square so the change is
// visible on clients without ansi support.
func RenderANSI(spans []Span) string {
	var b strings.Builder
	b.WriteString("```ansi\n")
	for _, span := range spans {
		text := utils.EscapeCodeBlock(span.Text)
		switch span.Op {
		case Equal:
			b.WriteString(text)
		case Insert:
			b.WriteString("🟩\u001b[1;32m" + text + "\u001b[0m🟩")
		case Delete:
			b.WriteString("🟥\u001b[1;31m" + text + "\u001b[0m🟥")
		}
	}
	b.WriteString("\n```")
	return b.String()
}
